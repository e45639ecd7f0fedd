package media

import (
	"errors"
	"fmt"
	"io"
)

// MaxPromptFileSize is the largest prompt file accepted.
const MaxPromptFileSize = 1024 * 1024

var ErrPromptFileTooLarge = errors.New("media: prompt file is larger than 1MB")

// ReadPromptFile reads a text prompt. size is the declared size of the file,
// negative if unknown.
func ReadPromptFile(r io.Reader, size int64) (string, error) {
	if size > MaxPromptFileSize {
		return "", ErrPromptFileTooLarge
	}
	b, err := io.ReadAll(io.LimitReader(r, MaxPromptFileSize+1))
	if err != nil {
		return "", fmt.Errorf("media: couldn't read prompt file: %w", err)
	}
	if len(b) > MaxPromptFileSize {
		return "", ErrPromptFileTooLarge
	}
	return string(b), nil
}
