package bootstrap

import (
	"fmt"

	appconfig "github.com/wolfman30/vitalpoint-assistant/internal/config"
	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/events"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/nlp"
	"github.com/wolfman30/vitalpoint-assistant/internal/notify"
	"github.com/wolfman30/vitalpoint-assistant/internal/observability/metrics"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

// Dependencies are the already-built collaborators of the conversation service.
type Dependencies struct {
	Directory  *directory.Directory
	Ledger     ledger.Ledger
	Store      session.Store
	Transcript conversation.Transcript
	Email      notify.EmailSender
	Publisher  events.Publisher
	Metrics    *metrics.ConversationMetrics
}

// BuildAnalyzer prefers the golem-backed English tokenizer and falls back to
// plain lower-cased tokens when the dictionary cannot be loaded.
func BuildAnalyzer(logger *logging.Logger) dialogue.Analyzer {
	if logger == nil {
		logger = logging.Default()
	}
	tokenizer, err := nlp.NewEnglishTokenizer()
	if err != nil {
		logger.Warn("lemmatizer unavailable; matching on raw tokens", "error", err)
		return nlp.NewTokenizer(nil)
	}
	return tokenizer
}

// BuildConversationService wires the dialogue engine into the conversation
// service with every optional side effect the deps provide.
func BuildConversationService(cfg *appconfig.Config, deps Dependencies, logger *logging.Logger) (*conversation.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Directory == nil || deps.Ledger == nil || deps.Store == nil {
		return nil, fmt.Errorf("bootstrap: directory, ledger and session store are required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	engine := dialogue.NewEngine(deps.Directory, deps.Ledger, BuildAnalyzer(logger), logger,
		dialogue.WithClinicName(cfg.ClinicName))

	opts := []conversation.Option{conversation.WithClinicName(cfg.ClinicName)}
	if deps.Transcript != nil {
		opts = append(opts, conversation.WithTranscript(deps.Transcript))
	}
	if deps.Email != nil {
		opts = append(opts, conversation.WithEmailSender(deps.Email))
	}
	if deps.Publisher != nil {
		opts = append(opts, conversation.WithPublisher(deps.Publisher))
	}
	if deps.Metrics != nil {
		opts = append(opts, conversation.WithMetrics(deps.Metrics))
	}
	return conversation.NewService(engine, deps.Store, logger, opts...), nil
}
