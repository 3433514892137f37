package github

// WebhookPayload is the subset of webhook fields most actions look at.
// Unknown fields are ignored and nothing is validated.
type WebhookPayload struct {
	Number       *int                `json:"number,omitempty"`
	Repository   *PayloadRepository  `json:"repository,omitempty"`
	Issue        *PayloadIssue       `json:"issue,omitempty"`
	PullRequest  *PayloadPullRequest `json:"pull_request,omitempty"`
	Sender       *Sender             `json:"sender,omitempty"`
	Action       string              `json:"action,omitempty"`
	Installation *Installation       `json:"installation,omitempty"`
	Comment      *Comment            `json:"comment,omitempty"`
}

type Owner struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

type PayloadRepository struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name"`
	Owner    Owner  `json:"owner"`
	HTMLURL  string `json:"html_url,omitempty"`
}

type PayloadIssue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url,omitempty"`
	Body    string `json:"body,omitempty"`
}

type PayloadPullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url,omitempty"`
	Body    string `json:"body,omitempty"`
}

type Sender struct {
	Type string `json:"type"`
}

type Installation struct {
	ID int64 `json:"id"`
}

type Comment struct {
	ID int64 `json:"id"`
}
