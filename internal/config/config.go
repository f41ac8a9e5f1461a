package config

import (
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/viper"
)

const (
	BackendOllama = "ollama"
	BackendVertex = "vertex"
	BackendMock   = "mock"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`

	NoKnowledgePhrases []string          `mapstructure:"no_knowledge_phrases" yaml:"no_knowledge_phrases"`
	Knowledge          []KnowledgeConfig `mapstructure:"knowledge" yaml:"knowledge"`
	Personas           []PersonaConfig   `mapstructure:"personas" yaml:"personas"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" yaml:"port"`
	StaticDir       string        `mapstructure:"static_dir" yaml:"static_dir"`     // avatar assets, served only if it exists
	StaticRoute     string        `mapstructure:"static_route" yaml:"static_route"` // e.g. "/hiyori/"
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

type InferenceConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "ollama", "vertex" or "mock"
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	ChatTimeout time.Duration `mapstructure:"chat_timeout" yaml:"chat_timeout"`
	ListTimeout time.Duration `mapstructure:"list_timeout" yaml:"list_timeout"`

	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	NumPredict  int     `mapstructure:"num_predict" yaml:"num_predict"`
	NumCtx      int     `mapstructure:"num_ctx" yaml:"num_ctx"`

	VertexProject  string `mapstructure:"vertex_project" yaml:"vertex_project"`
	VertexLocation string `mapstructure:"vertex_location" yaml:"vertex_location"`
}

type RetrievalConfig struct {
	MinTokenLength   int `mapstructure:"min_token_length" yaml:"min_token_length"`
	TopSections      int `mapstructure:"top_sections" yaml:"top_sections"`
	CharBudget       int `mapstructure:"char_budget" yaml:"char_budget"`
	NoTermsSections  int `mapstructure:"no_terms_sections" yaml:"no_terms_sections"`
	NoMatchSections  int `mapstructure:"no_match_sections" yaml:"no_match_sections"`
	RawFallbackChars int `mapstructure:"raw_fallback_chars" yaml:"raw_fallback_chars"`
}

// KnowledgeConfig describes one static corpus and when it is relevant.
type KnowledgeConfig struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Path     string   `mapstructure:"path" yaml:"path"`
	Intro    string   `mapstructure:"intro" yaml:"intro"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// PersonaConfig is one chat backend: its route, prompt and knowledge.
type PersonaConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	DisplayName  string `mapstructure:"display_name" yaml:"display_name"`
	Route        string `mapstructure:"route" yaml:"route"`
	Status       string `mapstructure:"status" yaml:"status"`
	Note         string `mapstructure:"note" yaml:"note"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
	UserSuffix   string `mapstructure:"user_suffix" yaml:"user_suffix"`
	EmptyReply   string `mapstructure:"empty_reply" yaml:"empty_reply"`

	// PromptKnowledge names the knowledge base injected into the system prompt.
	PromptKnowledge string `mapstructure:"prompt_knowledge" yaml:"prompt_knowledge"`
	// Fallback lists knowledge bases tried, in order, when the model has no answer.
	Fallback []string `mapstructure:"fallback" yaml:"fallback"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			StaticDir:       "hiyori_pro_en/runtime",
			StaticRoute:     "/hiyori/",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Inference: InferenceConfig{
			Backend:        BackendOllama,
			Model:          "llama3.2:1b",
			BaseURL:        "http://localhost:11434",
			ChatTimeout:    300 * time.Second,
			ListTimeout:    5 * time.Second,
			Temperature:    0.7,
			NumPredict:     256,
			NumCtx:         2048,
			VertexLocation: "us-central1",
		},
		Retrieval: RetrievalConfig{
			MinTokenLength:   2,
			TopSections:      5,
			CharBudget:       2500,
			NoTermsSections:  8,
			NoMatchSections:  6,
			RawFallbackChars: 2000,
		},
		NoKnowledgePhrases: defaultNoKnowledgePhrases(),
		Knowledge:          defaultKnowledge(),
		Personas:           defaultPersonas(),
	}
}

// Load builds the config from defaults, an optional YAML file and the
// environment (RELAY_ prefix, "." replaced by "_"). An empty path looks for
// ./relay.yaml and ignores it if missing.
func Load(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	setDefaults(v, def)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("relay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
		}
	}

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by earlier deployments.
	_ = v.BindEnv("inference.base_url", "RELAY_INFERENCE_BASE_URL", "OLLAMA_BASE_URL")
	_ = v.BindEnv("inference.model", "RELAY_INFERENCE_MODEL", "OLLAMA_MODEL")
	_ = v.BindEnv("server.port", "RELAY_SERVER_PORT", "PORT")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to decode config")
	}

	if len(cfg.NoKnowledgePhrases) == 0 {
		cfg.NoKnowledgePhrases = def.NoKnowledgePhrases
	}
	if len(cfg.Knowledge) == 0 {
		cfg.Knowledge = def.Knowledge
	}
	if len(cfg.Personas) == 0 {
		cfg.Personas = def.Personas
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("server.static_route", d.Server.StaticRoute)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("inference.backend", d.Inference.Backend)
	v.SetDefault("inference.model", d.Inference.Model)
	v.SetDefault("inference.base_url", d.Inference.BaseURL)
	v.SetDefault("inference.chat_timeout", d.Inference.ChatTimeout)
	v.SetDefault("inference.list_timeout", d.Inference.ListTimeout)
	v.SetDefault("inference.temperature", d.Inference.Temperature)
	v.SetDefault("inference.num_predict", d.Inference.NumPredict)
	v.SetDefault("inference.num_ctx", d.Inference.NumCtx)
	v.SetDefault("inference.vertex_project", d.Inference.VertexProject)
	v.SetDefault("inference.vertex_location", d.Inference.VertexLocation)

	v.SetDefault("retrieval.min_token_length", d.Retrieval.MinTokenLength)
	v.SetDefault("retrieval.top_sections", d.Retrieval.TopSections)
	v.SetDefault("retrieval.char_budget", d.Retrieval.CharBudget)
	v.SetDefault("retrieval.no_terms_sections", d.Retrieval.NoTermsSections)
	v.SetDefault("retrieval.no_match_sections", d.Retrieval.NoMatchSections)
	v.SetDefault("retrieval.raw_fallback_chars", d.Retrieval.RawFallbackChars)
}

// reservedRoutes are served by the relay itself and cannot be persona routes.
var reservedRoutes = map[string]bool{
	"/":        true,
	"/models":  true,
	"/clear":   true,
	"/history": true,
	"/healthz": true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Inference.Backend {
	case BackendOllama:
		if c.Inference.BaseURL == "" {
			return goerr.New("inference.base_url is required for the ollama backend")
		}
	case BackendVertex:
		if c.Inference.VertexProject == "" || c.Inference.VertexLocation == "" {
			return goerr.New("inference.vertex_project and inference.vertex_location are required for the vertex backend")
		}
	case BackendMock:
	default:
		return goerr.New("invalid inference backend", goerr.V("backend", c.Inference.Backend))
	}
	if c.Inference.Backend != BackendMock && c.Inference.Model == "" {
		return goerr.New("inference.model is required")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return goerr.New("invalid log format", goerr.V("format", c.Log.Format))
	}

	r := c.Retrieval
	if r.MinTokenLength < 1 || r.TopSections < 1 || r.CharBudget < 1 {
		return goerr.New("retrieval limits must be positive",
			goerr.V("min_token_length", r.MinTokenLength),
			goerr.V("top_sections", r.TopSections),
			goerr.V("char_budget", r.CharBudget))
	}

	kb := make(map[string]bool, len(c.Knowledge))
	for _, k := range c.Knowledge {
		if k.Name == "" || k.Path == "" {
			return goerr.New("knowledge entries need a name and a path", goerr.V("name", k.Name))
		}
		if kb[k.Name] {
			return goerr.New("duplicate knowledge name", goerr.V("name", k.Name))
		}
		kb[k.Name] = true
	}

	if len(c.Personas) == 0 {
		return goerr.New("at least one persona is required")
	}
	names := make(map[string]bool, len(c.Personas))
	routes := make(map[string]bool, len(c.Personas))
	for _, p := range c.Personas {
		if p.Name == "" {
			return goerr.New("persona without name")
		}
		if names[p.Name] {
			return goerr.New("duplicate persona name", goerr.V("name", p.Name))
		}
		names[p.Name] = true

		if !strings.HasPrefix(p.Route, "/") || reservedRoutes[p.Route] {
			return goerr.New("invalid persona route", goerr.V("persona", p.Name), goerr.V("route", p.Route))
		}
		if routes[p.Route] {
			return goerr.New("duplicate persona route", goerr.V("route", p.Route))
		}
		routes[p.Route] = true

		if strings.TrimSpace(p.SystemPrompt) == "" {
			return goerr.New("persona system_prompt is required", goerr.V("persona", p.Name))
		}
		if p.PromptKnowledge != "" && !kb[p.PromptKnowledge] {
			return goerr.New("persona references unknown knowledge",
				goerr.V("persona", p.Name), goerr.V("knowledge", p.PromptKnowledge))
		}
		for _, f := range p.Fallback {
			if !kb[f] {
				return goerr.New("persona references unknown knowledge",
					goerr.V("persona", p.Name), goerr.V("knowledge", f))
			}
		}
	}

	return nil
}

// Persona returns the persona with the given name.
func (c *Config) Persona(name string) (PersonaConfig, bool) {
	for _, p := range c.Personas {
		if p.Name == name {
			return p, true
		}
	}
	return PersonaConfig{}, false
}
