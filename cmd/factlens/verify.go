package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/factchecker/factlens/internal/models"
	"github.com/factchecker/factlens/internal/registry"
	"github.com/factchecker/factlens/internal/verify"
)

var (
	verifyTextFile string
	verifyImageArg string
	verifyQuery    string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify text or an image from the terminal",
}

var verifyTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Extract and verify the claims in a piece of text",
	Long: `Extract the factual claims in the given text (or the file named by --file, or
stdin when the text is "-") and print the verification report as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readTextInput(cmd, args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no text to verify")
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), engine.VerifyText(cmd.Context(), text))
	},
}

var verifyImageCmd = &cobra.Command{
	Use:   "image",
	Short: "Verify an image against a question about it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verifyQuery == "" {
			return fmt.Errorf("--query is required")
		}

		data, err := os.ReadFile(verifyImageArg)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		contentType := http.DetectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			return fmt.Errorf("%s is not an image (%s)", verifyImageArg, contentType)
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		img := models.Image{Data: data, Filename: filepath.Base(verifyImageArg), ContentType: contentType}
		return printJSON(cmd.OutOrStdout(), engine.VerifyImage(cmd.Context(), img, verifyQuery))
	},
}

func newEngine() (*verify.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return verify.NewEngine(cfg, registry.Build(cfg)), nil
}

func readTextInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case verifyTextFile != "":
		data, err := os.ReadFile(verifyTextFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", verifyTextFile, err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("provide text as an argument, --file, or - for stdin")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	verifyTextCmd.Flags().StringVarP(&verifyTextFile, "file", "f", "", "read text from a file")

	verifyImageCmd.Flags().StringVarP(&verifyImageArg, "image", "i", "", "path to the image")
	verifyImageCmd.Flags().StringVarP(&verifyQuery, "query", "q", "", "question about the image")
	_ = verifyImageCmd.MarkFlagRequired("image")

	verifyCmd.AddCommand(verifyTextCmd, verifyImageCmd)
	rootCmd.AddCommand(verifyCmd)
}
