package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/ru"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	ru_translations "github.com/go-playground/validator/v10/translations/ru"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

var (
	// 标题会成为内容文件名的一部分
	titleTag  = "title"
	titleText = "{0} не может содержать символы / и \\ или состоять только из точек"

	studentIDTag  = "studentid"
	studentIDText = "{0} должен содержать хотя бы одну цифру (номер группы)"

	// 与 Telegram 用户名规则一致，前导 @ 可有可无
	handleTag  = "handle"
	handleText = "{0} должен быть именем пользователя Telegram: от 5 до 32 латинских букв, цифр или _"

	// 多行内容不去掉首尾空白保存，只含空白时同样视为空
	notBlankTag  = "notblank"
	notBlankText = "{0} не может быть пустым"

	handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)
)

// NewValidator 创建带俄语错误信息的校验器，字段名优先取 label 标签，其次取 json 标签
func NewValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	locale := ru.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("ru")
	if err := ru_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation(titleTag, validTitle); err != nil {
		return nil, nil, err
	}
	if err := registerTranslation(validate, trans, titleTag, titleText); err != nil {
		return nil, nil, err
	}
	if err := validate.RegisterValidation(studentIDTag, validStudentID); err != nil {
		return nil, nil, err
	}
	if err := registerTranslation(validate, trans, studentIDTag, studentIDText); err != nil {
		return nil, nil, err
	}

	if err := validate.RegisterValidation(notBlankTag, validators.NotBlank); err != nil {
		return nil, nil, err
	}
	if err := registerTranslation(validate, trans, notBlankTag, notBlankText); err != nil {
		return nil, nil, err
	}
	if err := validate.RegisterValidation(handleTag, validHandle); err != nil {
		return nil, nil, err
	}
	if err := registerTranslation(validate, trans, handleTag, handleText); err != nil {
		return nil, nil, err
	}

	return validate, trans, nil
}

// TranslateFirst 只返回第一条校验错误
func TranslateFirst(err error, trans ut.Translator) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Translate(trans)
	}
	return err.Error()
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, text string) error {
	return validate.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func validTitle(fl validator.FieldLevel) bool {
	title := fl.Field().String()
	if title == "." || title == ".." {
		return false
	}
	return !strings.ContainsAny(title, `/\`)
}

func validStudentID(fl validator.FieldLevel) bool {
	_, err := DeriveGroup(fl.Field().String())
	return err == nil
}

func validHandle(fl validator.FieldLevel) bool {
	return handlePattern.MatchString(domain.NormalizeHandle(fl.Field().String()))
}
