package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	OpenAIKeyName    = "OPENAI_API_KEY"
	LangChainKeyName = "LANGCHAIN_API_KEY"

	// OpenAIKeyHelpURL is shown to users when the OpenAI key is missing.
	OpenAIKeyHelpURL = "https://platform.openai.com/api-keys"
)

// Secrets holds the resolved API credentials.
type Secrets struct {
	OpenAIKey    string
	LangChainKey string
}

// Tracing reports whether pipeline tracing is enabled. It is switched on by
// the presence of a LangChain key.
func (s *Secrets) Tracing() bool {
	return s.LangChainKey != ""
}

// CredentialError is returned when a required secret cannot be resolved.
type CredentialError struct {
	Name    string
	HelpURL string
}

func (e *CredentialError) Error() string {
	msg := fmt.Sprintf("%s not found: set it in your environment or secrets file", e.Name)
	if e.HelpURL != "" {
		msg += fmt.Sprintf(" (get one at %s)", e.HelpURL)
	}
	return msg
}

// LoadDotEnv loads a .env file into the process environment when present.
// Variables already set are left alone.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ResolveSecrets looks up credentials in the secrets file first and the
// process environment second. A missing secrets file is not an error; a
// missing OPENAI_API_KEY is, as a *CredentialError.
func ResolveSecrets(secretsFile string) (*Secrets, error) {
	k := koanf.New(".")
	if secretsFile != "" {
		if _, err := os.Stat(secretsFile); err == nil {
			if err := k.Load(file.Provider(secretsFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading secrets %s: %w", secretsFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing secrets %s: %w", secretsFile, err)
		}
	}

	lookup := func(name string) string {
		if v := k.String(name); v != "" {
			return v
		}
		return os.Getenv(name)
	}

	s := &Secrets{
		OpenAIKey:    lookup(OpenAIKeyName),
		LangChainKey: lookup(LangChainKeyName),
	}
	if s.OpenAIKey == "" {
		return nil, &CredentialError{Name: OpenAIKeyName, HelpURL: OpenAIKeyHelpURL}
	}
	return s, nil
}
