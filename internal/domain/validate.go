package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxCommentLength はコメント本文の最大文字数（ルーン数）。
const MaxCommentLength = 2000

// handlePattern はメンション可能なユーザー名の形式。メンション抽出と同じ \w に揃える。
var handlePattern = regexp.MustCompile(`^\w+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	return v
}

// NewComment はコメント作成の入力値。
type NewComment struct {
	// Text はコメント本文。前後の空白を除いて空であってはならない。
	Text string `validate:"required,max=2000"`
	// AuthorID はコメントを投稿するユーザーのID。
	AuthorID string `validate:"required"`
	// PostID はコメント先の投稿ID。
	PostID string `validate:"required"`
	// ParentID は返信先コメントのID。
	ParentID *string
}

// Normalize は入力値の前後の空白を取り除いた値を返す。
// 空文字の ParentID は nil として扱う。
func (in NewComment) Normalize() NewComment {
	in.Text = strings.TrimSpace(in.Text)
	in.PostID = strings.TrimSpace(in.PostID)
	if in.ParentID != nil {
		p := strings.TrimSpace(*in.ParentID)
		if p == "" {
			in.ParentID = nil
		} else {
			in.ParentID = &p
		}
	}
	return in
}

// Validate はコメント作成の入力値を検証する。
// 違反時は ErrInvalidComment をラップしたエラーを返す。
func (in NewComment) Validate() error {
	return wrapValidation(ErrInvalidComment, validate.Struct(in))
}

// ValidateCommentText は編集後のコメント本文を検証する。
func ValidateCommentText(text string) error {
	return wrapValidation(ErrInvalidComment, validate.Var(strings.TrimSpace(text), "required,max=2000"))
}

// NewUser はユーザー登録の入力値。
type NewUser struct {
	// Username はメンションで使われるハンドル名。
	Username string `validate:"required,max=32,handle"`
	// Role はユーザーの権限。空の場合は RoleUser。
	Role Role `validate:"omitempty,oneof=user admin"`
}

// Validate はユーザー登録の入力値を検証する。
func (in NewUser) Validate() error {
	return wrapValidation(ErrInvalidUser, validate.Struct(in))
}

// wrapValidation は validator のエラーをセンチネルエラーでラップする。
func wrapValidation(sentinel, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed on %q", sentinel, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
