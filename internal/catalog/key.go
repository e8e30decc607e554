package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey не хватает составляющих ключа главы.
var ErrInvalidKey = errors.New("invalid chapter key")

// ChapterKey составной идентификатор главы.
type ChapterKey struct {
	Board      string `json:"board" validate:"required"`
	ClassLevel string `json:"class_level" validate:"required"`
	Stream     string `json:"stream,omitempty"`
	Subject    string `json:"subject" validate:"required"`
	ChapterID  string `json:"chapter_id" validate:"required"`
}

// streamClasses классы, в которых учитывается профиль обучения.
var streamClasses = map[string]bool{"11": true, "12": true}

// String возвращает ключ хранилища вида
// nst_content_{board}_{class}[-{stream}]_{subject}_{chapter}.
// Профиль добавляется только для 11 и 12 классов.
func (k ChapterKey) String() string {
	streamKey := ""
	if streamClasses[k.ClassLevel] && k.Stream != "" {
		streamKey = "-" + k.Stream
	}
	return fmt.Sprintf("nst_content_%s_%s%s_%s_%s", k.Board, k.ClassLevel, streamKey, k.Subject, k.ChapterID)
}

// Validate проверяет, что обязательные части ключа заданы.
func (k ChapterKey) Validate() error {
	parts := []struct{ name, value string }{
		{"board", k.Board},
		{"class_level", k.ClassLevel},
		{"subject", k.Subject},
		{"chapter_id", k.ChapterID},
	}
	var missing []string
	for _, p := range parts {
		if strings.TrimSpace(p.value) == "" {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidKey, strings.Join(missing, ", "))
	}
	return nil
}
