package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their configuration key.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// FieldError is one failed constraint.
type FieldError struct {
	// Key is the dotted configuration key, e.g. "remote.base_url".
	Key   string
	Tag   string
	Param string
}

func (e FieldError) Error() string {
	switch e.Tag {
	case "required":
		return e.Key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Key, e.Param)
	case "hostname_port":
		return e.Key + " must be host:port"
	case "":
		return e.Key + " is invalid"
	}
	if e.Param != "" {
		return fmt.Sprintf("%s failed %s=%s", e.Key, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s failed %s", e.Key, e.Tag)
}

// ValidationError collects every failed constraint.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Verify validates the configuration. It returns a *ValidationError
// listing every problem found.
func Verify(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var fields []FieldError

	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Key:   keyOf(fe.Namespace()),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
	}

	fields = append(fields, verifyRemote(&cfg.Remote)...)
	fields = append(fields, verifyStorage(&cfg.Storage)...)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// keyOf turns "Config.remote.base_url" into "remote.base_url".
func keyOf(namespace string) string {
	_, key, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return key
}

func verifyRemote(cfg *RemoteSection) []FieldError {
	if cfg.BaseURL == "" {
		return nil
	}
	raw := cfg.BaseURL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return []FieldError{{Key: "remote.base_url", Tag: "url"}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []FieldError{{Key: "remote.base_url", Tag: "oneof", Param: "http https"}}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) []FieldError {
	var out []FieldError
	if cfg.Engine != "memory" && cfg.DataDir == "" {
		out = append(out, FieldError{Key: "storage.data_dir", Tag: "required"})
	}
	if cfg.EncryptionPassphrase != "" && len(cfg.EncryptionPassphrase) < snapshot.MinPassphraseLength {
		out = append(out, FieldError{
			Key:   "storage.encryption_passphrase",
			Tag:   "min",
			Param: fmt.Sprint(snapshot.MinPassphraseLength),
		})
	}
	return out
}
