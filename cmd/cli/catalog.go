package main

import (
	"fmt"
	"strings"

	"github.com/MarciaSuzuki/Tripod/pkg/tripod"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/catalog"
	"github.com/spf13/cobra"
)

// loadCatalog reads the catalog without opening the database.
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path := catalogPath
	if !cmd.Flags().Changed("catalog") {
		cfg, err := tripod.LoadConfig(envFile)
		if err != nil {
			return nil, err
		}
		path = cfg.CatalogPath
	}
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

func markersCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "List the discourse markers of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}

			for _, g := range cat.Groups() {
				if group != "" && !strings.EqualFold(g.Name, group) {
					continue
				}
				fmt.Printf("\n🏷  %s\n", g.Name)
				for _, m := range g.Markers {
					fmt.Printf("   %-28s %s\n", m.ID, m.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "show only this group")
	return cmd
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the marker profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}

			for _, p := range cat.Profiles() {
				fmt.Printf("\n📋 %s\n   %s\n", p.ID, p.Description)
				fmt.Printf("   %s\n", strings.Join(p.Markers, ", "))
			}
			return nil
		},
	}
}

func genresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the genres and their elicitation prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}

			for _, g := range cat.Genres() {
				fmt.Printf("\n🎙  %s\n", g.Name)
				for _, p := range g.Prompts {
					fmt.Printf("   • %s\n", p)
				}
			}
			fmt.Printf("\nConsent levels: %s\n", strings.Join(cat.ConsentLevels(), ", "))
			return nil
		},
	}
}
