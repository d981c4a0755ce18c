package validation

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	ErrEmptyContent   = errors.New("content is required")
	ErrContentTooLong = errors.New("content exceeds the maximum length")
	ErrInvalidContent = errors.New("content must be valid UTF-8 without NUL characters")
)

var validate = validator.New()

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

// NormalizeMessageContent trims surrounding whitespace and enforces the
// configured length limit, counted in characters. Text that Postgres cannot
// store as-is is rejected.
func NormalizeMessageContent(content string) (string, error) {
	if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
		return "", ErrInvalidContent
	}
	content = strings.TrimSpace(content)
	if err := validate.Var(content, "required"); err != nil {
		return "", ErrEmptyContent
	}
	if err := validate.Var(content, "max="+strconv.Itoa(MaxMessageLength())); err != nil {
		return "", errors.Wrapf(ErrContentTooLong, "limit is %d", MaxMessageLength())
	}
	return content, nil
}

// Struct validates struct fields tagged with `validate`.
func Struct(v interface{}) error {
	return validate.Struct(v)
}
