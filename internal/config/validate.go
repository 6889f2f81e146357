package config

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// checkedSettings is the subset of the table with shape constraints. Field
// names in validation errors are reported as table keys.
type checkedSettings struct {
	LocalHostname  string `key:"STAF_LOCAL_HOSTNAME" validate:"required"`
	RemoteHostname string `key:"STAF_REMOTE_HOSTNAME" validate:"required"`
	TempDir        string `key:"TMPDIR" validate:"required"`
	InstallDir     string `key:"OPENDSDIR" validate:"required"`
	InstanceHost   string `key:"DIRECTORY_INSTANCE_HOST" validate:"required"`
	InstancePort   string `key:"DIRECTORY_INSTANCE_PORT" validate:"required,tcpport"`
	SSLPort        string `key:"DIRECTORY_INSTANCE_SSL_PORT" validate:"required,tcpport"`
	InstanceSuffix string `key:"DIRECTORY_INSTANCE_SFX" validate:"required"`
	JavaHome       string `key:"JAVA_HOME" validate:"required"`
	SendMail       string `key:"SEND_MAIL_AFTER_TEST_RUN" validate:"oneof=true false"`
	SendMailTo     string `key:"SEND_MAIL_TO" validate:"omitempty,email"`
	ConfigTool     string `key:"DSCONFIG" validate:"required"`
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("key")
	})
	if err := v.RegisterValidation("tcpport", isTCPPort); err != nil {
		return nil, fmt.Errorf("register tcpport: %w", err)
	}
	return v, nil
}

// isTCPPort accepts plain ASCII digits in 1..65535. Signs and spaces are
// rejected so the value can be pasted into an LDAP URL unchanged.
func isTCPPort(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	port, err := strconv.Atoi(s)
	return err == nil && port > 0 && port <= 65535
}

// validateConfig checks the resolved table. The built-in defaults always pass;
// only values supplied by a source can fail here.
func validateConfig(cfg *Config) error {
	settings := checkedSettings{
		LocalHostname:  cfg.Value(StafLocalHostname),
		RemoteHostname: cfg.Value(StafRemoteHostname),
		TempDir:        cfg.Value(TempDir),
		InstallDir:     cfg.Value(InstallDir),
		InstanceHost:   cfg.Value(InstanceHost),
		InstancePort:   cfg.Value(InstancePort),
		SSLPort:        cfg.Value(InstanceSSLPort),
		InstanceSuffix: cfg.Value(InstanceSuffix),
		JavaHome:       cfg.Value(JavaHome),
		SendMail:       cfg.Value(SendMail),
		SendMailTo:     cfg.Value(SendMailTo),
		ConfigTool:     cfg.Value(ConfigTool),
	}

	v, err := newValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(&settings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if settings.SendMail == "true" && settings.SendMailTo == "" {
		return fmt.Errorf("%w: %s is required when %s is true", ErrInvalidConfig, SendMailTo, SendMail)
	}
	if settings.InstancePort == settings.SSLPort {
		return fmt.Errorf("%w: %s and %s must differ", ErrInvalidConfig, InstancePort, InstanceSSLPort)
	}
	return nil
}
