package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	jsonimport "github.com/weftconf/weft/packages/import/json"
	propimport "github.com/weftconf/weft/packages/import/properties"
	yamlimport "github.com/weftconf/weft/packages/import/yaml"
)

var (
	importOutputFlag  string
	importSectionFlag string
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Convert other formats to weft configuration",
	Long: `Convert documents in other formats to weft configuration text.

Supported formats:
  json       - JSON documents (objects become sections)
  yaml       - YAML documents (mappings become sections)
  properties - Java .properties files (key prefixes become sections)

Examples:
  weft import json config.json
  weft import json config.json -o app.conf
  weft import yaml config.yaml --section defaults
  weft import properties app.properties -o app.conf`,
}

var importJSONCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Convert a JSON document",
	Long: `Convert a JSON document to weft configuration text.

Top-level objects become sections and nested keys flatten to dotted
option names. Top-level scalars and arrays land in a default section.

Examples:
  weft import json config.json
  weft import json config.json -o app.conf
  weft import json config.json --section defaults`,
	Args: usage(cobra.ExactArgs(1)),
	RunE: importJSONCommand,
}

var importYAMLCmd = &cobra.Command{
	Use:   "yaml <file>",
	Short: "Convert a YAML document",
	Long: `Convert a YAML document to weft configuration text.

Top-level mappings become sections and nested keys flatten to dotted
option names, preserving document order. Anchors and aliases are
resolved before conversion.

Examples:
  weft import yaml config.yaml
  weft import yaml config.yaml -o app.conf`,
	Args: usage(cobra.ExactArgs(1)),
	RunE: importYAMLCommand,
}

var importPropertiesCmd = &cobra.Command{
	Use:   "properties <file>",
	Short: "Convert a Java properties file",
	Long: `Convert a Java .properties file to weft configuration text.

The key segment before the first dot selects the section; the rest
becomes the option name. Java escapes and line continuation are
honored.

Examples:
  weft import properties app.properties
  weft import properties app.properties -o app.conf`,
	Args: usage(cobra.ExactArgs(1)),
	RunE: importPropertiesCommand,
}

func init() {
	importCmd.PersistentFlags().StringVarP(&importOutputFlag, "output", "o", "", "Output file path (default: stdout)")
	importCmd.PersistentFlags().StringVar(&importSectionFlag, "section", "", "Section for keys that have no natural one (default: main)")

	importCmd.AddCommand(importJSONCmd)
	importCmd.AddCommand(importYAMLCmd)
	importCmd.AddCommand(importPropertiesCmd)
	rootCmd.AddCommand(importCmd)
}

func importJSONCommand(cmd *cobra.Command, args []string) error {
	var opts []jsonimport.Option
	if importSectionFlag != "" {
		opts = append(opts, jsonimport.WithDefaultSection(importSectionFlag))
	}

	content, err := jsonimport.NewConverter(opts...).ConvertFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to convert JSON document: %w", err)
	}
	return writeImported(cmd, content)
}

func importYAMLCommand(cmd *cobra.Command, args []string) error {
	var opts []yamlimport.Option
	if importSectionFlag != "" {
		opts = append(opts, yamlimport.WithDefaultSection(importSectionFlag))
	}

	content, err := yamlimport.NewConverter(opts...).ConvertFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to convert YAML document: %w", err)
	}
	return writeImported(cmd, content)
}

func importPropertiesCommand(cmd *cobra.Command, args []string) error {
	var opts []propimport.Option
	if importSectionFlag != "" {
		opts = append(opts, propimport.WithDefaultSection(importSectionFlag))
	}

	content, err := propimport.NewConverter(opts...).ConvertFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to convert properties file: %w", err)
	}
	return writeImported(cmd, content)
}

func writeImported(cmd *cobra.Command, content string) error {
	if importOutputFlag == "" {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}

	if dir := filepath.Dir(importOutputFlag); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(importOutputFlag, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully imported to %s\n", importOutputFlag)
	return nil
}
