// Package main is the pdf2md command line: it converts a local PDF into a
// markdown ZIP or an Anki deck.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "pdf2md",
		Short: "Split PDFs into chapter markdown or Anki decks",
		Long: `pdf2md flattens a PDF, extracts its text (falling back to OCR when the
embedded text layer is too sparse), splits it into chapters at detected
headings and writes either a ZIP of markdown files or an Anki .apkg deck.
Each chapter can optionally be cleaned up by an OpenAI-compatible model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file (default: ./pdf2md.yaml or ~/.config/pdf2md/pdf2md.yaml)")
	root.PersistentFlags().Bool("verbose", false, "log every pipeline step")
	v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newConvertCmd(v), newVersionCmd())
	return root
}

// configureEnv maps PDF2MD_<KEY> environment variables onto config keys.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("PDF2MD")
	v.AutomaticEnv()
}

func initConfig(v *viper.Viper, cfgFile string) error {
	configureEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdf2md")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdf2md"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
