//go:build windows

package protocol

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// RegistryRegistrar writes the handler under HKCU\Software\Classes.
type RegistryRegistrar struct{}

// NewRegistrar returns the per-user registry registrar.
func NewRegistrar() Registrar {
	return RegistryRegistrar{}
}

// Register creates or updates the scheme key:
//
//	HKCU\Software\Classes\<name>
//	    (Default)     = URL:<description>
//	    URL Protocol  = ""
//	    DefaultIcon\(Default)          = "<exe>",0
//	    shell\open\command\(Default)   = "<exe>" "%1"
func (RegistryRegistrar) Register(opts Options, executable string) error {
	base := `Software\Classes\` + opts.Name

	values := []struct {
		path, name, value string
	}{
		{base, "", "URL:" + opts.EffectiveDescription()},
		{base, "URL Protocol", ""},
		{base + `\DefaultIcon`, "", `"` + executable + `",0`},
		{base + `\shell\open\command`, "", fmt.Sprintf(`"%s" run "%%1"`, executable)},
	}

	for _, v := range values {
		if err := setString(v.path, v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}

func setString(path, name, value string) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open registry key %s: %w", path, err)
	}
	defer key.Close()

	if err := key.SetStringValue(name, value); err != nil {
		return fmt.Errorf("failed to set registry value %s\\%s: %w", path, name, err)
	}
	return nil
}
