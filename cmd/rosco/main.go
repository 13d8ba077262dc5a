// Package main provides the CLI entrypoint for rosco.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/entrenacoco/rosco/internal/config"
	"github.com/entrenacoco/rosco/internal/deck"
	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/round"
	"github.com/entrenacoco/rosco/internal/speech"
	"github.com/entrenacoco/rosco/internal/stats"
	"github.com/entrenacoco/rosco/internal/statsui"
	"github.com/entrenacoco/rosco/internal/store"
	"github.com/entrenacoco/rosco/internal/studyui"
	"github.com/entrenacoco/rosco/internal/telemetry"
	"github.com/entrenacoco/rosco/internal/tui"
)

const (
	defaultRoundTime   = 120
	defaultBaseFuzzy   = 0.86
	defaultCurveWindow = 5
)

var (
	playDeck        string
	playTime        int
	playAdaptive    bool
	playAllowTokens bool
	playMute        bool
	playVoice       bool
	playBaseFuzzy   float64
	playMicCmd      string
	playNick        string
	playEndpoint    string

	studyDeck string

	statsDeck        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rosco",
		Short:         "TUI trivia wheel with spaced repetition",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playDeck, "deck", "", "deck to play (default: first available)")
	rootCmd.Flags().IntVar(&playTime, "time", defaultRoundTime, "round length in seconds")
	rootCmd.Flags().BoolVar(&playAdaptive, "adaptive", true, "adjust difficulty during the round")
	rootCmd.Flags().BoolVar(&playAllowTokens, "allow-tokens", true, "accept token-containment answers")
	rootCmd.Flags().BoolVar(&playMute, "mute", false, "start with question read-aloud off")
	rootCmd.Flags().BoolVar(&playVoice, "voice", false, "answer by voice (requires --mic-cmd)")
	rootCmd.Flags().Float64Var(&playBaseFuzzy, "base-fuzzy", defaultBaseFuzzy, "base fuzzy match threshold (0.5-1)")
	rootCmd.Flags().StringVar(&playMicCmd, "mic-cmd", "", "command that prints voice transcripts line by line")
	rootCmd.Flags().StringVar(&playNick, "nick", "", "nickname for the ranking")
	rootCmd.Flags().StringVar(&playEndpoint, "endpoint", "", "ranking server base URL")

	rootCmd.AddCommand(newStudyCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newDecksCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "deck", &playDeck, fileCfg.Round.Deck)
	applyIntConfig(cmd, "time", &playTime, fileCfg.Round.TimeSec)
	applyBoolConfig(cmd, "adaptive", &playAdaptive, fileCfg.Round.Adaptive)
	applyBoolConfig(cmd, "allow-tokens", &playAllowTokens, fileCfg.Round.AllowTokens)
	applyBoolConfig(cmd, "mute", &playMute, fileCfg.Round.Mute)
	applyBoolConfig(cmd, "voice", &playVoice, fileCfg.Round.Voice)
	applyFloatConfig(cmd, "base-fuzzy", &playBaseFuzzy, fileCfg.Round.BaseFuzzy)
	applyStringConfig(cmd, "endpoint", &playEndpoint, fileCfg.Telemetry.Endpoint)
	applyStringConfig(cmd, "nick", &playNick, fileCfg.Telemetry.Nick)

	if err := validatePlayConfig(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if _, err := deck.LoadDir(ctx, st, config.DefaultDeckDir()); err != nil {
		logErrf("failed to load deck directory: %v\n", err)
	}

	d, err := resolveDeck(ctx, st, playDeck)
	if err != nil {
		return err
	}
	cards, err := st.ListCards(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}
	if len(cards) == 0 {
		return fmt.Errorf("deck %q has no cards", d.ID)
	}

	rec := telemetry.New(ctx, st, playEndpoint, playNick)
	sink := func(name string, payload map[string]any) {
		rec.Record(context.Background(), name, payload)
	}

	roundCfg := round.DefaultConfig()
	roundCfg.RoundSeconds = playTime
	roundCfg.Adaptive = playAdaptive
	roundCfg.AllowTokens = playAllowTokens
	roundCfg.BaseFuzzy = playBaseFuzzy

	session := round.New(d.ID, cards, st, sink, roundCfg)

	speaker := speech.DetectOutput(d.Lang)
	mic := speech.Input(speech.NoopInput{})
	if playVoice {
		if playMicCmd == "" {
			return fmt.Errorf("--voice requires --mic-cmd")
		}
		mic = speech.DetectInput(playMicCmd)
	}

	uiCfg := model.RoundConfig{
		DeckID:       d.ID,
		RoundSeconds: playTime,
		Adaptive:     playAdaptive,
		AllowTokens:  playAllowTokens,
		Mute:         playMute,
		Voice:        playVoice,
	}
	uiModel := tui.NewModel(uiCfg, session, st, rec, speaker, mic)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStudyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Review due cards with grades",
		Args:  cobra.NoArgs,
		RunE:  runStudyCmd,
	}
	cmd.Flags().StringVar(&studyDeck, "deck", "", "deck to review (default: first available)")
	return cmd
}

func runStudyCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "deck", &studyDeck, fileCfg.Round.Deck)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if _, err := deck.LoadDir(ctx, st, config.DefaultDeckDir()); err != nil {
		logErrf("failed to load deck directory: %v\n", err)
	}

	d, err := resolveDeck(ctx, st, studyDeck)
	if err != nil {
		return err
	}

	uiModel, err := studyui.NewModel(ctx, st, d.ID)
	if err != nil {
		return err
	}
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run study TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show round stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDeck, "deck", "", "deck filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain summary instead of the TUI")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		DeckID:      statsDeck,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		rounds, err := st.ListRounds(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to list rounds: %w", err)
		}
		return stats.RenderSummary(os.Stdout, rounds)
	}

	uiModel := statsui.NewModel(st, cfg)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newDecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List available decks",
		Args:  cobra.NoArgs,
		RunE:  runDecksCmd,
	}
}

func runDecksCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if _, err := deck.LoadDir(ctx, st, config.DefaultDeckDir()); err != nil {
		logErrf("failed to load deck directory: %v\n", err)
	}

	decks, err := st.ListDecks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}
	if len(decks) == 0 {
		logErrf("No decks found. Drop deck JSON files into %s or run: rosco import <file>\n", config.DefaultDeckDir())
		return fmt.Errorf("no decks found")
	}
	for _, d := range decks {
		title := d.Title
		if title == "" {
			title = d.ID
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t(%s)\n", d.ID, title, d.Lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a deck JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	d, err := deck.ImportFile(context.Background(), st, args[0])
	if err != nil {
		return fmt.Errorf("failed to import deck: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported deck %s\n", d.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func resolveDeck(ctx context.Context, st *store.Store, id string) (*model.Deck, error) {
	if id != "" {
		d, err := st.GetDeck(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load deck: %w", err)
		}
		if d == nil {
			return nil, deckNotFoundError(id)
		}
		return d, nil
	}
	decks, err := st.ListDecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	if len(decks) == 0 {
		return nil, deckNotFoundError("")
	}
	return &decks[0], nil
}

func deckNotFoundError(id string) error {
	lines := []string{
		fmt.Sprintf("expected deck files in: %s", config.DefaultDeckDir()),
		"List decks: rosco decks",
		"Import a deck: rosco import <file>",
	}
	if id != "" {
		lines = append([]string{fmt.Sprintf("deck %q not found", id)}, lines...)
	} else {
		lines = append([]string{"no decks available"}, lines...)
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func validatePlayConfig() error {
	if playTime <= 0 {
		return fmt.Errorf("--time must be > 0")
	}
	if playBaseFuzzy < 0.5 || playBaseFuzzy >= 1 {
		return fmt.Errorf("--base-fuzzy must be between 0.5 and 1")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rosco configuration
# Uncomment a value to enable it. CLI flags override config values.

[round]
# deck = ""               # Deck id (default: first available)
# time = %d              # Round length in seconds
# adaptive = true         # Adjust difficulty during the round
# allow-tokens = true     # Accept token-containment answers
# mute = false            # Start with question read-aloud off
# voice = false           # Answer by voice (requires --mic-cmd)
# base-fuzzy = %.2f       # Base fuzzy match threshold (0.5-1)

[telemetry]
# endpoint = ""           # Ranking server base URL
# nick = ""               # Nickname for the ranking
`,
		defaultRoundTime,
		defaultBaseFuzzy,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
