// Package conf provides basic configuration handling from a file exposing a single global struct with all configuration.
package conf

import (
	"encoding/json"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Options anonymous struct holds the global configuration options for the server
var Options struct {
	// The address to listen on
	Address string
	// The HTTP address to listen on if the main address is HTTPS
	HTTPAddress string
	// ExternalAddress is the base URL embedded in confirmation mails and listing links
	ExternalAddress string
	// Security defintions
	Security struct {
		// The secret session key that is used to symmetrically encrypt sessions stored in cookies
		SessionKey string
		// Session timeout in minutes
		Timeout int
	}
	// SSL configuration
	SSL struct {
		// The certificate file
		Cert string
		// The private key file
		Key string
	}
	// DB properties
	DB struct {
		// ConnectString how to connect to DB
		ConnectString string
		// Username for the DB
		Username string
		// Password for DB
		Password string
	}
	// SMTP relay used for confirmation and notification mails
	SMTP struct {
		// Host of the relay
		Host string
		// Port of the relay
		Port int
		// Username if the relay requires authentication
		Username string
		// Password if the relay requires authentication
		Password string
		// From address on outgoing mails
		From string
		// Notify is the project address receiving a copy of every accepted request
		Notify string
	}
	// Dir is the download root holding the installer files
	Dir string
	// Static is the location of the HTML templates and static resources
	Static string
}

// The pipe writer to wrap around standard logger. It is configured in main.
var LogWriter *io.PipeWriter

// Load loads configuration from a file.
func Load(filename string) error {
	options, err := os.ReadFile(filename)
	if err != nil {
		logrus.WithField("error", err).Warn("Could not open config file and not using default")
		return err
	}
	err = json.Unmarshal(options, &Options)
	if err != nil {
		return err
	}
	if Options.Dir == "" {
		Options.Dir = "."
	}
	finalOptions, err := json.MarshalIndent(&Options, "", "  ")
	if err != nil {
		return err
	}
	logrus.Infof("Using options:\n%s\n", string(finalOptions))
	return nil
}

// FromEnv overlays options from environment variables (DOWNLOAD_ prefix),
// loading a .env file first if one is present.
func FromEnv() error {
	_ = godotenv.Load()
	return envconfig.Process("download", &Options)
}

func Default() {
	Options.Address = ":9090"
	Options.ExternalAddress = "http://localhost:9090"
	Options.Security.SessionKey = "kukuKiki1234qawsed.Strazaaplokij"
	Options.Security.Timeout = 1440
	Options.DB.Username = "download"
	Options.DB.Password = "download"
	Options.DB.ConnectString = "tcp/download?parseTime=true"
	Options.SMTP.Host = "localhost"
	Options.SMTP.Port = 25
	Options.SMTP.From = "info@neuroconstruct.org"
	Options.Dir = "."
	Options.Static = "static"
}
