package core

// AnnotationProperties are the optional fields of a notice, warning or
// error annotation. Empty strings and nil positions are omitted; a position
// pointing at 0 is sent as 0.
type AnnotationProperties struct {
	Title string
	File  string

	// StartLine and EndLine are 1-based. EndLine defaults to StartLine on
	// the runner side.
	StartLine *int
	EndLine   *int

	// Columns cannot be sent when StartLine and EndLine differ.
	StartColumn *int
	EndColumn   *int
}

// Ptr returns a pointer to v, for filling AnnotationProperties positions.
func Ptr[T any](v T) *T {
	return &v
}

// Properties maps the annotation fields onto command properties in the
// order the runner expects.
func (p AnnotationProperties) Properties() Properties {
	return Properties{
		{Key: "title", Value: optString(p.Title)},
		{Key: "file", Value: optString(p.File)},
		{Key: "line", Value: optInt(p.StartLine)},
		{Key: "endLine", Value: optInt(p.EndLine)},
		{Key: "col", Value: optInt(p.StartColumn)},
		{Key: "endColumn", Value: optInt(p.EndColumn)},
	}
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

// Notice emits a notice annotation. message may be a string or an error.
func (a *Action) Notice(message any, props ...AnnotationProperties) error {
	return a.annotate("notice", message, props)
}

// Warning emits a warning annotation. message may be a string or an error.
func (a *Action) Warning(message any, props ...AnnotationProperties) error {
	return a.annotate("warning", message, props)
}

// Error emits an error annotation. message may be a string or an error.
func (a *Action) Error(message any, props ...AnnotationProperties) error {
	return a.annotate("error", message, props)
}

func (a *Action) annotate(name string, message any, props []AnnotationProperties) error {
	var cmdProps Properties
	if len(props) > 0 {
		cmdProps = props[0].Properties()
	}
	if err, ok := message.(error); ok {
		message = err.Error()
	}
	return a.IssueCommand(name, cmdProps, message)
}
