package main

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/command/registry"
)

func main() {
	tplBytes, err := os.ReadFile("README.md.tmpl")
	if err != nil {
		fmt.Printf("Failed to read template: %v\n", err)
		os.Exit(1)
	}

	tpl, err := template.New("readme").Parse(string(tplBytes))
	if err != nil {
		fmt.Printf("Failed to parse template: %v\n", err)
		os.Exit(1)
	}

	root := registry.NewRootCommand(command.NewApp())

	var sections strings.Builder
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			help := sub.Long
			if help == "" {
				help = sub.Short
			}
			fmt.Fprintf(&sections, "### %s\n```\n%s\n\n%s\n", sub.CommandPath(), sub.UseLine(), help)
			if flags := sub.LocalFlags().FlagUsages(); flags != "" {
				fmt.Fprintf(&sections, "\nOptions:\n%s", flags)
			}
			sections.WriteString("```\n\n")
			walk(sub)
		}
	}
	walk(root)

	data := map[string]string{
		"CommandSections": sections.String(),
	}

	outFile, err := os.Create("README.md")
	if err != nil {
		fmt.Printf("Failed to create README.md: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := tpl.Execute(outFile, data); err != nil {
		fmt.Printf("Failed to render template: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("README.md generated successfully")
}
