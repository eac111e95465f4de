package config

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// DBCredential struct
type DBCredential struct {
	Address  string `yaml:"address"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// GetRedisAddress prints redis credential info.
func (c *DBCredential) GetRedisAddress() string {
	return fmt.Sprintf("%v:%v", c.Address, c.Port)
}

type App struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Icons       []string `yaml:"icons"`
}

// Configuration struct
type Configuration struct {
	ProjectID       string       `yaml:"project_id"`
	RelayURL        string       `yaml:"relay_url"`
	Network         string       `yaml:"network"`
	QRCodePath      string       `yaml:"qr_code_path"`
	App             App          `yaml:"app"`
	RedisCredential DBCredential `yaml:"redis"`
	SentryDSN       string       `yaml:"sentry_dsn"`
	LogLevel        int          `yaml:"log_level"`
}

func readConfig(path string) (Configuration, error) {
	logrus.Info("Starting to load configuration file ...")
	dat, err := ioutil.ReadFile(path)
	if err != nil {
		logrus.Fatal(err)
	}
	t := Configuration{}
	err = yaml.Unmarshal(dat, &t)

	if err != nil {
		if os.IsNotExist(err) {
			logrus.Fatalf("file %s does not exist", path)
		} else {
			logrus.Fatalf("fail to decode config error: %v", err)
		}
	}
	return t, nil
}

var Global *Configuration

// Read reads configuration information from yml.
func Read() {
	configFilePath := flag.String("config-path", "internal/config/config.yml", "The path to the configuration file")
	flag.Parse()
	logrus.Infof("Loading configuration file from %s", *configFilePath)
	globalConfig, err := readConfig(*configFilePath)
	if err != nil {
		logrus.Fatal(err)
	}
	Global = &globalConfig
}
