package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port"`
	Auth     Auth     `koanf:"auth"`
	Mail     Mail     `koanf:"mail"`
	Amqp     Amqp     `koanf:"amqp"`
	Database Database `koanf:"db"`
}

type Auth struct {
	// JwtSecret signs bearer tokens. Must be set in every non-development deployment.
	JwtSecret string        `koanf:"jwtsecret"`
	TokenTTL  time.Duration `koanf:"tokenttl"`
	CodeTTL   time.Duration `koanf:"codettl"`
}

type Mail struct {
	// Provider is either "log" (codes are only logged) or "gmail".
	Provider     string `koanf:"provider"`
	From         string `koanf:"from"`
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
	RefreshToken string `koanf:"refreshtoken"`
}

type Amqp struct {
	Url      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
	Queue    string `koanf:"queue"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:3000",
		Port: 8181,
		Auth: Auth{
			JwtSecret: "change-me",
			TokenTTL:  7 * 24 * time.Hour,
			CodeTTL:   15 * time.Minute,
		},
		Mail: Mail{
			Provider: "log",
			From:     "no-reply@pocketplan.local",
		},
		Amqp: Amqp{
			Exchange: "pocketplan",
			Queue:    "transactions",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "pocketplan",
			Pass:   "",
			Name:   "pocketplan",
			Schema: "pocketplan",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "POCKETPLAN_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "POCKETPLAN_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if app.Auth.JwtSecret == "change-me" {
		log.Warn("Using the default JWT secret, set POCKETPLAN_AUTH_JWTSECRET")
	}

	return app, nil
}
