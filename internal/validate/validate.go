// Package validate provides input validation helpers for waketime.
// Struct validation runs on go-playground/validator tags declared on the
// model and config types; failures become UserErrors.
package validate

import (
	stderrors "errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
)

const (
	// MaxLabelLength is the maximum length of an alarm label, in characters.
	MaxLabelLength = 50
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
)

var (
	instance *validator.Validate
	once     sync.Once
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, key := range []string{"json", "mapstructure"} {
				name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return strings.ToLower(f.Name)
		})
		_ = v.RegisterValidation("anyday", func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(model.Schedule)
			return ok && s.Any()
		})
		_ = v.RegisterValidation("sound", func(fl validator.FieldLevel) bool {
			return model.IsValidSound(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates any tagged struct and converts the first failure into a
// UserError.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewUserError(err.Error(), "")
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "anyday":
		return errors.Validation(errors.ErrInvalidDays, "schedule",
			"Select at least one day", "")
	case "sound":
		ue := errors.Validation(nil, field, "Unknown sound", "Run 'waketime sounds' to see the catalog.")
		ue.Value = fmt.Sprint(fe.Value())
		return ue
	case "url":
		ue := errors.Validation(errors.ErrInvalidURL, field, "Invalid URL", "")
		ue.Value = fmt.Sprint(fe.Value())
		return ue
	}

	switch field {
	case "hour", "minute":
		ue := errors.Validation(errors.ErrInvalidTime, field,
			fmt.Sprintf("%s out of range", field), "")
		ue.Value = fmt.Sprint(fe.Value())
		return ue
	case "duration":
		return errors.Validation(errors.ErrInvalidDuration, "snooze",
			"Snooze duration must be a positive number of minutes", "")
	case "label":
		if fe.Tag() == "max" {
			return errors.Validation(nil, field,
				fmt.Sprintf("Label must be %d characters or fewer", MaxLabelLength),
				"Shorten the label")
		}
		return errors.Validation(nil, field, "Label cannot be empty", "Give the alarm a name, like \"Morning Workout\".")
	}

	switch fe.Tag() {
	case "required":
		return errors.Validation(nil, field, field+" is required", "")
	case "oneof":
		return errors.Validation(nil, field,
			fmt.Sprintf("%s must be one of: %s", field, fe.Param()), "")
	}
	return errors.Validation(nil, field,
		fmt.Sprintf("%s failed the %q check", field, fe.Tag()), "")
}

// Alarm validates an alarm definition. The label is expected to be
// sanitized already.
func Alarm(a *model.Alarm) error {
	if a == nil {
		return errors.NewUserError("alarm is required", "")
	}
	return Struct(a)
}

// Label validates an alarm label.
func Label(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.Validation(nil, "label", "Label cannot be empty", "Give the alarm a name, like \"Morning Workout\".")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return errors.Validation(nil, "label",
			fmt.Sprintf("Label must be %d characters or fewer", MaxLabelLength),
			"Shorten the label")
	}
	return nil
}

// SnoozeDuration validates a snooze duration in minutes.
func SnoozeDuration(minutes int) error {
	if minutes <= 0 {
		return errors.Validation(errors.ErrInvalidDuration, "snooze",
			"Snooze duration must be a positive number of minutes", "")
	}
	return nil
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.Validation(errors.ErrInvalidURL, "url", "URL cannot be empty", "")
	}
	if len(rawURL) > MaxURLLength {
		return errors.Validation(errors.ErrInvalidURL, "url", "URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return invalidURL(rawURL, "Invalid URL format", "")
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return invalidURL(rawURL, "Invalid URL scheme", "URLs must use https:// (or http:// for localhost)")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return invalidURL(rawURL, "Invalid URL: missing hostname", "")
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
	if parsed.Scheme == "http" && !isLocalhost {
		return invalidURL(rawURL, "HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}
	if !isLocalhost {
		if ip := net.ParseIP(hostname); ip != nil && isInternalIP(ip) {
			return invalidURL(rawURL, "Internal IP addresses not allowed",
				"Webhook URLs must point to external services")
		}
	}
	return nil
}

func invalidURL(raw, message, suggestion string) error {
	ue := errors.Validation(errors.ErrInvalidURL, "url", message, suggestion)
	ue.Value = raw
	return ue
}

var privateRanges = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err == nil {
			nets = append(nets, network)
		}
	}
	return nets
}()

func isInternalIP(ip net.IP) bool {
	for _, network := range privateRanges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// Webhooks validates webhook declarations, including their URLs.
func Webhooks(hooks []model.Webhook) error {
	seen := make(map[string]bool, len(hooks))
	for i := range hooks {
		if err := Struct(&hooks[i]); err != nil {
			return err
		}
		if err := URL(hooks[i].URL); err != nil {
			return err
		}
		if seen[hooks[i].Name] {
			return errors.NewUserErrorWithField("webhook", hooks[i].Name,
				"Duplicate webhook name", "Webhook names must be unique")
		}
		seen[hooks[i].Name] = true
	}
	return nil
}
