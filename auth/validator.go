package auth

import (
	stderrors "errors"
	"fmt"
	"groupchat/domain"
	"groupchat/errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Nickname string `json:"nickname" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Nickname string `json:"nickname" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ValidateRegister trims the nickname in place and checks both fields.
func ValidateRegister(req *RegisterRequest) error {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Password" {
			return errors.ErrInvalidPassword
		}
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if req.Nickname == domain.BotNickname {
		return errors.ErrReservedNickname
	}
	return nil
}

func ValidateLogin(req *LoginRequest) error {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}
