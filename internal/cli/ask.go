package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studymate-backend/internal/ollama"
)

func newAskCmd(a *app) *cobra.Command {
	var category, system, image string

	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Streams an answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ollama.Request{
				Prompt:      strings.Join(args, " "),
				System:      system,
				ImageBase64: image,
				Category:    ollama.ParseCategory(category),
			}
			a.log.Debug("asking", zap.Stringer("category", req.Category), zap.String("model", a.settings.ModelFor(req.Category)))

			out := cmd.OutOrStdout()
			chunks, errc := a.client.GenerateStream(cmd.Context(), req)
			text, err := relay(out, chunks, errc)
			if text != "" && !strings.HasSuffix(text, "\n") {
				fmt.Fprintln(out)
			}
			if err != nil {
				return fmt.Errorf("%s", ollama.Describe(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "general", "model category: general, document, chat or video")
	cmd.Flags().StringVarP(&system, "system", "s", "", "context passed to the model as the system prompt")
	cmd.Flags().StringVar(&image, "image", "", "base64 image for multimodal models")
	return cmd
}

// relay prints fragments as they arrive and returns everything printed.
func relay(out io.Writer, chunks <-chan ollama.Chunk, errc <-chan error) (string, error) {
	var b strings.Builder
	for chunk := range chunks {
		fmt.Fprint(out, chunk.Text)
		b.WriteString(chunk.Text)
	}
	return b.String(), <-errc
}
