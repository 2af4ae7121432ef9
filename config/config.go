package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/wfunc/mafia/models"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig holds the default rule set for new sessions. Hosts can
// still adjust individual settings during registration.
type GameConfig struct {
	NumMafia         int           `mapstructure:"num_mafia"`
	NumDoctor        int           `mapstructure:"num_doctor"`
	NumPolice        int           `mapstructure:"num_police"`
	VotingTime       time.Duration `mapstructure:"voting_time"`
	DiscussionTime   time.Duration `mapstructure:"discussion_time"`
	RegistrationTime time.Duration `mapstructure:"registration_time"`
	NightGrace       time.Duration `mapstructure:"night_grace"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	MafiaSkipKills   int           `mapstructure:"mafia_skip_kills"`
	RevealMode       int           `mapstructure:"reveal_mode"`
}

// Settings converts the configured defaults into a session rule set.
func (g GameConfig) Settings() models.GameSettings {
	return models.GameSettings{
		NumMafia:         g.NumMafia,
		NumDoctor:        g.NumDoctor,
		NumPolice:        g.NumPolice,
		VotingTime:       g.VotingTime,
		DiscussionTime:   g.DiscussionTime,
		RegistrationTime: g.RegistrationTime,
		NightGrace:       g.NightGrace,
		ReminderInterval: g.ReminderInterval,
		MafiaSkipKills:   g.MafiaSkipKills,
		RevealMode:       g.RevealMode,
	}
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("game.num_mafia", 1)
	viper.SetDefault("game.num_doctor", 1)
	viper.SetDefault("game.num_police", 1)
	viper.SetDefault("game.voting_time", 30*time.Second)
	viper.SetDefault("game.discussion_time", 4*time.Minute)
	viper.SetDefault("game.registration_time", 90*time.Second)
	viper.SetDefault("game.night_grace", 10*time.Second)
	viper.SetDefault("game.reminder_interval", 30*time.Second)
	viper.SetDefault("game.mafia_skip_kills", 1)
	viper.SetDefault("game.reveal_mode", 3)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
