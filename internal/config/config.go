package config

import (
	"encoding/json"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Config holds the runtime application config
type Config struct {
	Env string `long:"env" env:"GO_ENV" default:"development"`

	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" choice:"panic" description:"Log level"`

	Config func(s string) error `long:"config" env:"CONFIG" description:"Path to config file" json:"-"`

	Host     string `long:"host" env:"HOST" default:"localhost" description:"Host to listen on"`
	HTTPPort int    `long:"http-port" env:"HTTP_PORT" default:"8389" description:"Admin API port to listen on"`
	LDAPPort int    `long:"ldap-port" env:"LDAP_PORT" default:"10389" description:"LDAP port to listen on"`

	BaseDN       string `long:"base-dn" env:"BASE_DN" default:"dc=example,dc=org" description:"LDAP base DN"`
	BindUsername string `long:"bind-username" env:"BIND_USERNAME" description:"Service bind DN"`
	BindPassword string `long:"bind-password" env:"BIND_PASSWORD" description:"Service bind password" json:"-"`

	PropertiesFile string `long:"properties-file" env:"PROPERTIES_FILE" default:"properties.json" description:"Path to the persisted backend settings"`
	Domain         string `long:"domain" env:"DOMAIN" description:"Tenant domain suffix for the settings namespace"`
}

// ParseConfig parses and validates provided configuration into a config object
func ParseConfig(args []string) (*Config, error) {
	if args == nil {
		args = os.Args[1:]
	}
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	_ = godotenv.Load(".env." + env + ".local")
	if env != "test" {
		_ = godotenv.Load(".env.local")
	}
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load() // The Original .env

	c := &Config{}

	err := c.parseFlags(args)
	if err != nil {
		return c, err
	}

	return c, nil
}

func (c *Config) parseFlags(args []string) error {
	p := flags.NewParser(c, flags.Default)

	i := flags.NewIniParser(p)
	c.Config = func(s string) error {
		return i.ParseFile(s)
	}

	_, err := p.ParseArgs(args)
	if err != nil {
		return handleFlagError(err)
	}

	return nil
}

func handleFlagError(err error) error {
	flagsErr, ok := err.(*flags.Error)
	if ok && flagsErr.Type == flags.ErrHelp {
		// Library has just printed cli help
		os.Exit(0)
	}

	return err
}

// Validate validates a config object
func (c *Config) Validate() {
	// Check for show stopper errors
	if c.BindUsername != "" && c.BindPassword == "" {
		log.Fatal("\"bind-password\" option must be set when \"bind-username\" is")
	}
	if c.PropertiesFile == "" {
		log.Fatal("\"properties-file\" option must be set")
	}
}

func (c Config) String() string {
	jsonConf, _ := json.Marshal(c)
	return string(jsonConf)
}
