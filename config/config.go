package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Host     string
	Port     string
	DBname   string
	Username string
	Password string
}

func (store Config) Dsn() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		store.Host,
		store.Username,
		store.Password,
		store.DBname,
		store.Port,
	)
}

func New() *Config {
	return &Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		DBname:   os.Getenv("DB_NAME"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
	}
}

func (store Config) ServerPort() string {
	return os.Getenv("SERVER_PORT")
}

func (store Config) ModerationModel() string {
	model := os.Getenv("MODERATION_MODEL")
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return model
}

func (store Config) AdminEmail() string {
	return os.Getenv("ADMIN_EMAIL")
}

func (store Config) SMTPHost() string {
	return os.Getenv("SMTP_HOST")
}

func (store Config) SMTPPort() int {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		return 587
	}
	return port
}

func (store Config) SMTPUsername() string {
	return os.Getenv("SMTP_USERNAME")
}

func (store Config) SMTPPassword() string {
	return os.Getenv("SMTP_PASSWORD")
}

func (store Config) SMTPSender() string {
	return os.Getenv("SMTP_SENDER")
}
