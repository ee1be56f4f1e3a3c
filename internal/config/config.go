package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Telegram TelegramConfig
	JWT      JWTConfig
	App      AppConfig
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Driver  string // "mysql", "postgres"
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
	SSLMode string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

// TelegramConfig holds the admin report channel. Reports are skipped when Token is empty.
type TelegramConfig struct {
	Token        string
	ReportChatID string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// AppConfig describes the public web application the gateways redirect back to.
// CallbackURL is the public origin of this service; it defaults to BaseURL.
type AppConfig struct {
	BaseURL     string
	CallbackURL string
	AdminUserID string
}

type PaymentConfig struct {
	Card       CardConfig
	Wallet     WalletConfig
	Bank       BankConfig
	Transfer   TransferConfig
	DedupTTL   time.Duration
	SweepSpec  string
	StaleAfter time.Duration
}

type CardConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

func (c CardConfig) Configured() bool {
	return c.SecretKey != ""
}

type WalletConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RequestType string
	Lang        string
}

func (c WalletConfig) Configured() bool {
	return c.PartnerCode != "" && c.AccessKey != "" && c.SecretKey != ""
}

type BankConfig struct {
	TmnCode    string
	HashSecret string
	URL        string
	CurrCode   string
	Locale     string
}

func (c BankConfig) Configured() bool {
	return c.TmnCode != "" && c.HashSecret != ""
}

// TransferConfig is the platform account students transfer to manually.
type TransferConfig struct {
	Bank        string
	Account     string
	AccountName string
}

func (c TransferConfig) Configured() bool {
	return c.Bank != "" && c.Account != ""
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: loadDatabase(),
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Telegram: TelegramConfig{
			Token:        viper.GetString("TELEGRAM_TOKEN"),
			ReportChatID: viper.GetString("TELEGRAM_REPORT_CHAT_ID"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: duration("JWT_EXPIRY", 24*time.Hour),
		},
		App: AppConfig{
			BaseURL:     viper.GetString("APP_BASE_URL"),
			CallbackURL: viper.GetString("APP_CALLBACK_URL"),
			AdminUserID: viper.GetString("APP_ADMIN_USER_ID"),
		},
		Payment: PaymentConfig{
			Card: CardConfig{
				SecretKey:     viper.GetString("CARD_SECRET_KEY"),
				WebhookSecret: viper.GetString("CARD_WEBHOOK_SECRET"),
				Currency:      viper.GetString("CARD_CURRENCY"),
			},
			Wallet: WalletConfig{
				PartnerCode: viper.GetString("WALLET_PARTNER_CODE"),
				AccessKey:   viper.GetString("WALLET_ACCESS_KEY"),
				SecretKey:   viper.GetString("WALLET_SECRET_KEY"),
				Endpoint:    viper.GetString("WALLET_ENDPOINT"),
				RequestType: viper.GetString("WALLET_REQUEST_TYPE"),
				Lang:        viper.GetString("WALLET_LANG"),
			},
			Bank: BankConfig{
				TmnCode:    viper.GetString("BANK_TMN_CODE"),
				HashSecret: viper.GetString("BANK_HASH_SECRET"),
				URL:        viper.GetString("BANK_URL"),
				CurrCode:   viper.GetString("BANK_CURR_CODE"),
				Locale:     viper.GetString("BANK_LOCALE"),
			},
			Transfer: TransferConfig{
				Bank:        viper.GetString("TRANSFER_BANK"),
				Account:     viper.GetString("TRANSFER_ACCOUNT"),
				AccountName: viper.GetString("TRANSFER_ACCOUNT_NAME"),
			},
			DedupTTL:   duration("PAYMENT_DEDUP_TTL", 10*time.Minute),
			SweepSpec:  viper.GetString("PAYMENT_SWEEP_SPEC"),
			StaleAfter: duration("PAYMENT_STALE_AFTER", 24*time.Hour),
		},
	}

	if cfg.App.CallbackURL == "" {
		cfg.App.CallbackURL = cfg.App.BaseURL
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set")
	}
	if cfg.App.BaseURL == "" {
		log.Println("WARNING: APP_BASE_URL is not set")
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_BASE_URL", "http://localhost:3000")
	viper.SetDefault("DB_DRIVER", "mysql")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("AMQP_EXCHANGE", "payments")
	viper.SetDefault("JWT_EXPIRY", "24h")
	viper.SetDefault("CARD_CURRENCY", "vnd")
	viper.SetDefault("WALLET_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create")
	viper.SetDefault("WALLET_REQUEST_TYPE", "captureWallet")
	viper.SetDefault("WALLET_LANG", "vi")
	viper.SetDefault("BANK_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	viper.SetDefault("BANK_CURR_CODE", "VND")
	viper.SetDefault("BANK_LOCALE", "vn")
	viper.SetDefault("PAYMENT_DEDUP_TTL", "10m")
	viper.SetDefault("PAYMENT_SWEEP_SPEC", "0 */30 * * * *")
	viper.SetDefault("PAYMENT_STALE_AFTER", "24h")
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver:  viper.GetString("DB_DRIVER"),
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
		SSLMode: viper.GetString("DB_SSLMODE"),
	}
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DSN returns the driver-specific DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return "host=" + d.Host + " port=" + d.Port + " user=" + d.User + " password=" + d.Pass +
			" dbname=" + d.Name + " sslmode=" + d.SSLMode
	}
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
