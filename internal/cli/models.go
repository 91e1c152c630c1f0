package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studymate-backend/internal/ollama"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Shows and changes the model used for each category",
	}
	cmd.AddCommand(newModelsGetCmd(a), newModelsSetCmd(a), newModelsCheckCmd(a), newModelsListCmd(a))
	return cmd
}

func newModelsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Prints the configured model per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range ollama.Categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", c, a.settings.ModelFor(c))
			}
			return nil
		},
	}
}

func newModelsSetCmd(a *app) *cobra.Command {
	var document, chat, video, general, all string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Changes the configured models. Categories not given keep their current model.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all = strings.TrimSpace(all); all != "" {
				if err := a.settings.SetAll(all); err != nil {
					return fmt.Errorf("failed to save model settings: %w", err)
				}
			} else {
				if !anyChanged(cmd) {
					return fmt.Errorf("nothing to set: pass at least one of --document, --chat, --video, --general or --all")
				}
				m := a.settings.Models()
				flags := cmd.Flags()
				if flags.Changed("document") {
					m.Document = strings.TrimSpace(document)
				}
				if flags.Changed("chat") {
					m.Chat = strings.TrimSpace(chat)
				}
				if flags.Changed("video") {
					m.Video = strings.TrimSpace(video)
				}
				if flags.Changed("general") {
					m.General = strings.TrimSpace(general)
				}
				if err := a.settings.SetModels(m); err != nil {
					return fmt.Errorf("failed to save model settings: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Model settings saved to %s\n", a.settings.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&document, "document", "", "model for document operations")
	cmd.Flags().StringVar(&chat, "chat", "", "model for chat")
	cmd.Flags().StringVar(&video, "video", "", "model for video and image operations")
	cmd.Flags().StringVar(&general, "general", "", "model for everything else")
	cmd.Flags().StringVar(&all, "all", "", "one model for every category")
	return cmd
}

func anyChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"document", "chat", "video", "general"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func newModelsCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Reports whether a model is installed on the Ollama server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !a.client.CheckModelExists(cmd.Context(), name) {
				return fmt.Errorf("model %q is not installed, run 'ollama pull %s'", name, name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is installed\n", name)
			return nil
		},
	}
}

func newModelsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the models installed on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			installed, err := a.client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", ollama.Describe(err))
			}
			for _, m := range installed {
				fmt.Fprintln(cmd.OutOrStdout(), m.Name)
			}
			return nil
		},
	}
}
