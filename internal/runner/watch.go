package runner

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sekia-ai/actionkit/pkg/core"
)

// watchChannels tails the channel files while a step runs and logs every
// line appended to them. The returned func stops the watcher, waits for it
// to exit and then reads whatever it had not yet seen, so it must be called
// before the files are truncated.
func (s *Session) watchChannels() (func(), error) {
	if len(s.files) == 0 {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	t := &tailer{
		s:       s,
		byPath:  make(map[string]core.Channel, len(s.files)),
		offsets: make(map[string]int64),
		partial: make(map[string]string),
	}
	for ch, path := range s.files {
		t.byPath[filepath.Clean(path)] = ch
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.loop(watcher)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			watcher.Close()
			wg.Wait()
			t.flush()
		})
	}, nil
}

// tailer tracks how far each channel file has been read. Only the loop
// goroutine touches it until the watcher is closed.
type tailer struct {
	s       *Session
	byPath  map[string]core.Channel
	offsets map[string]int64
	partial map[string]string
}

func (t *tailer) loop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			path := filepath.Clean(event.Name)
			if _, ok := t.byPath[path]; ok {
				t.read(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			t.s.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// read logs the complete lines appended to path since the last read.
func (t *tailer) read(path string) {
	ch := t.byPath[path]
	data, next, err := readFrom(path, t.offsets[path])
	if err != nil {
		t.s.logger.Debug().Err(err).Str("channel", string(ch)).Msg("tail channel file")
		return
	}
	t.offsets[path] = next

	lines := strings.Split(t.partial[path]+data, "\n")
	t.partial[path] = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		t.log(ch, line)
	}
}

// flush picks up writes the watcher missed before it was closed, including
// a final line with no terminator.
func (t *tailer) flush() {
	paths := make([]string, 0, len(t.byPath))
	for path := range t.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		t.read(path)
		if rest := t.partial[path]; rest != "" {
			t.log(t.byPath[path], rest)
			t.partial[path] = ""
		}
	}
}

func (t *tailer) log(ch core.Channel, line string) {
	t.s.logger.Debug().
		Str("channel", string(ch)).
		Str("line", t.s.mask.redact(trimEOL(line))).
		Msg("file command appended")
}

// readFrom returns the bytes of path after offset and the new offset.
func readFrom(path string, offset int64) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", offset, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", offset, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", offset, err
	}
	return string(data), offset + int64(len(data)), nil
}
