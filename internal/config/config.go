package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultSensorEndpoint = "http://localhost:3000/dados-sensores"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// SensorEndpoint is the upstream URL the graph screen fetches readings from.
	SensorEndpoint string
	// FetchTimeout bounds a single upstream fetch. Zero disables the client timeout.
	FetchTimeout time.Duration
	// DisplayLocation is the zone used to format chart time labels (DISPLAY_TZ).
	DisplayLocation    *time.Location
	ChartWidth         int
	ChartHeight        int
	SessionIdleTimeout time.Duration

	SensorAPIAddr   string
	SensorAPITokens []string
	SensorAPILimit  int

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := getenvDefault("HTTP_ADDR", ":8080")

	endpoint := getenvDefault("SENSOR_ENDPOINT", DefaultSensorEndpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_ENDPOINT %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid SENSOR_ENDPOINT %q (scheme must be http or https)", endpoint)
	}

	fetchTimeout, err := durationEnv("FETCH_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	if fetchTimeout < 0 {
		return Config{}, fmt.Errorf("invalid FETCH_TIMEOUT %q (must be >= 0)", fetchTimeout)
	}

	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("DISPLAY_TZ")); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DISPLAY_TZ %q: %w", tz, err)
		}
	}

	chartWidth, err := intEnv("CHART_WIDTH", "800")
	if err != nil {
		return Config{}, err
	}
	chartHeight, err := intEnv("CHART_HEIGHT", "400")
	if err != nil {
		return Config{}, err
	}
	if chartWidth <= 0 || chartHeight <= 0 {
		return Config{}, fmt.Errorf("invalid chart size %dx%d (must be > 0)", chartWidth, chartHeight)
	}

	idleTimeout, err := durationEnv("SESSION_IDLE_TIMEOUT", "15m")
	if err != nil {
		return Config{}, err
	}
	if idleTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT %q (must be > 0)", idleTimeout)
	}

	sensorAPIAddr := getenvDefault("SENSOR_API_ADDR", ":3000")
	var tokens []string
	for _, tok := range strings.Split(os.Getenv("SENSOR_API_TOKENS"), ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	apiLimit, err := intEnv("SENSOR_API_LIMIT", "100")
	if err != nil {
		return Config{}, err
	}
	if apiLimit <= 0 || apiLimit > 1000 {
		return Config{}, fmt.Errorf("invalid SENSOR_API_LIMIT %d (allowed: 1-1000)", apiLimit)
	}

	driver := getenvDefault("DB_DRIVER", "sqlite3")
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := getenvDefault("SQLITE_PATH", "dev/sqlite/sensors.db")

	maxOpenConns, err := intEnv("DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intEnv("DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := durationEnv("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logSQL, err := boolEnv("DB_LOG_SQL", "false")
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	mqttPort, err := intEnv("MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d", mqttPort)
	}
	mqttClientID := getenvDefault("MQTT_CLIENT_ID", "sensorgraph-sensor-api")
	mqttTopic := getenvDefault("MQTT_TOPIC", "stations/+/telemetry")

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		HTTPAddr:           httpAddr,
		SensorEndpoint:     endpoint,
		FetchTimeout:       fetchTimeout,
		DisplayLocation:    loc,
		ChartWidth:         chartWidth,
		ChartHeight:        chartHeight,
		SessionIdleTimeout: idleTimeout,
		SensorAPIAddr:      sensorAPIAddr,
		SensorAPITokens:    tokens,
		SensorAPILimit:     apiLimit,
		Driver:             driver,
		DSN:                dsn,
		Path:               path,
		MaxOpenConns:       maxOpenConns,
		MaxIdleConns:       maxIdleConns,
		ConnMaxLifetime:    connMaxLifetime,
		LogSQL:             logSQL,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		MQTTTopic:          mqttTopic,
	}, nil
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key, def string) (int, error) {
	s := getenvDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func durationEnv(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func boolEnv(key, def string) (bool, error) {
	s := getenvDefault(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
