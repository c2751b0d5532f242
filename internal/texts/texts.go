package texts

import (
	"os"
	"sync"

	"afripay-text-bot/internal/logger"

	"github.com/goccy/go-yaml"
)

// Texts holds the operator-editable bot messages. The file is optional;
// omitted entries keep their defaults. UpdateTexts is called by the
// fsnotify watcher when the file changes on disk.
type Texts struct {
	mu   sync.RWMutex
	data Data
}

type Data struct {
	Welcome       string `yaml:"welcome"`
	MenuHeader    string `yaml:"menu_header"`
	LoginRequired string `yaml:"login_required"`
	GenericError  string `yaml:"generic_error"`
	ComingSoon    string `yaml:"coming_soon"`
}

func defaults() Data {
	return Data{
		Welcome:       "👋 Hello %s!\nWelcome to Afripay, the modern banking service connected to Genius-Wallet.\n\nDo you already have an account?",
		MenuHeader:    "Available Afripay services:\n1) 💰 Deposit\n2) 🔁 Exchange\n3) 📤 Send\n4) 🏧 Withdraw\n\nChoose an option from the keyboard below.",
		LoginRequired: "Please login first with /login",
		GenericError:  "❌ Something went wrong. Please try again later.",
		ComingSoon:    "🚧 Feature under implementation.",
	}
}

func InitTexts(path string) *Texts {
	t := &Texts{data: defaults()}
	if err := t.UpdateTexts(path); err != nil {
		logger.Info("Bot texts file not loaded, using defaults:", err)
	}
	return t
}

// UpdateTexts re-reads the texts file. Defaults win for empty fields so a
// partial file stays valid.
func (t *Texts) UpdateTexts(path string) error {
	input, err := os.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	loaded := Data{}
	if err = yaml.NewDecoder(input).Decode(&loaded); err != nil {
		return err
	}

	merged := defaults()
	if loaded.Welcome != "" {
		merged.Welcome = loaded.Welcome
	}
	if loaded.MenuHeader != "" {
		merged.MenuHeader = loaded.MenuHeader
	}
	if loaded.LoginRequired != "" {
		merged.LoginRequired = loaded.LoginRequired
	}
	if loaded.GenericError != "" {
		merged.GenericError = loaded.GenericError
	}
	if loaded.ComingSoon != "" {
		merged.ComingSoon = loaded.ComingSoon
	}

	t.mu.Lock()
	t.data = merged
	t.mu.Unlock()

	return nil
}

func (t *Texts) Get() Data {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data
}
