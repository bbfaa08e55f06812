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

const envPrefix = "SCHEDULR_"

type Application struct {
	Host      string    `koanf:"host"`
	Server    Server    `koanf:"server"`
	Google    Google    `koanf:"google"`
	Database  Database  `koanf:"db"`
	Booking   Booking   `koanf:"booking"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

type Server struct {
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"readtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
	IdleTimeout  time.Duration `koanf:"idletimeout"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Booking struct {
	// MeetingDuration is the length of the calendar event created for a booking.
	MeetingDuration time.Duration `koanf:"meetingduration"`
	// MirrorEnabled toggles copying new bookings into the owner's Google Calendar.
	MirrorEnabled bool `koanf:"mirrorenabled"`
}

type RateLimit struct {
	PerMinute int `koanf:"perminute"`
	Burst     int `koanf:"burst"`
}

func Default() Application {
	return Application{
		Host: "http://localhost:3000",
		Server: Server{
			Port:         8181,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "schedulr",
			Pass:   "",
			Name:   "schedulr",
			Schema: "schedulr",
		},
		Booking: Booking{
			MeetingDuration: time.Hour,
			MirrorEnabled:   true,
		},
		RateLimit: RateLimit{
			PerMinute: 30,
			Burst:     10,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Default(), "koanf"), nil)
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
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
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

	return app, nil
}
