package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config armazena todas as configurações do PharmaCart.
// Os campos seguem os requisitos do projeto (DB, Cache, Segurança, Mensageria, E-mail, Pedidos).
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Eventos (Kafka). Sem brokers, a publicação é desativada.
	KafkaBrokers    []string
	KafkaOrderTopic string

	// E-mail (SMTP)
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SupportEmail string

	// OTP de redefinição de senha
	OTPTTL         time.Duration
	OTPCooldown    time.Duration
	OTPMaxAttempts int

	// Pedidos e Estoque
	OrderRetryMax     int
	LowStockThreshold int

	// Super admin criado na inicialização (opcional)
	AdminBootstrapEmail    string
	AdminBootstrapPassword string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// O .env (se existir) já deve ter sido carregado pelo godotenv no cmd.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:  getDurationEnv("CACHE_TTL_MIN", 5) * time.Minute,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Kafka
		KafkaBrokers:    getListEnv("KAFKA_BROKERS"),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "pharmacart.orders"),

		// 7. SMTP
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@pharmacart.local"),
		SupportEmail: getEnv("SUPPORT_EMAIL", ""),

		// 8. OTP
		OTPTTL:         getDurationEnv("OTP_TTL_MIN", 10) * time.Minute,
		OTPCooldown:    getDurationEnv("OTP_COOLDOWN_SEC", 60) * time.Second,
		OTPMaxAttempts: getIntEnv("OTP_MAX_ATTEMPTS", 5),

		// 9. Pedidos
		OrderRetryMax:     getIntEnv("ORDER_RETRY_MAX", 3),
		LowStockThreshold: getIntEnv("LOW_STOCK_THRESHOLD", 10),

		AdminBootstrapEmail:    getEnv("ADMIN_BOOTSTRAP_EMAIL", ""),
		AdminBootstrapPassword: getEnv("ADMIN_BOOTSTRAP_PASSWORD", ""),
	}

	// Valores negativos virariam retentativas sem fim na conversão para uint64.
	if cfg.OrderRetryMax < 0 {
		log.Printf("⚠️ Aviso: ORDER_RETRY_MAX negativo (%d). Usando 0.", cfg.OrderRetryMax)
		cfg.OrderRetryMax = 0
	}

	return cfg
}

// IsProduction informa se o ambiente é produção.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas, ignorando itens vazios.
func getListEnv(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
