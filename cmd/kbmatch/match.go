package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/variantkb/kbmatch/internal/gkb"
	"github.com/variantkb/kbmatch/internal/kb"
	"github.com/variantkb/kbmatch/internal/match"
)

func newMatchCmd() *cobra.Command {
	var (
		reference1 string
		reference2 string
	)

	cmd := &cobra.Command{
		Use:   "match <notation>",
		Short: "Match a variant notation against the knowledge base",
		Example: `  kbmatch match "KRAS:p.G12D"
  kbmatch match "(BCR,ABL1):fusion(e.13,e.3)"
  kbmatch match "p.G12D" --reference1 KRAS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			records, err := matcher.MatchPositional(cmd.Context(), args[0], match.Options{
				Reference1: reference1,
				Reference2: reference2,
			})
			if err != nil {
				return err
			}
			return printRecords(records)
		},
	}

	cmd.Flags().StringVar(&reference1, "reference1", "", "Explicit primary reference (for notation without features)")
	cmd.Flags().StringVar(&reference2, "reference2", "", "Explicit secondary reference")
	return cmd
}

func newMatchCategoryCmd() *cobra.Command {
	var dropHomozygous bool

	cmd := &cobra.Command{
		Use:   "match-category <gene> <category>",
		Short: "Match a gene and variant category against the knowledge base",
		Example: `  kbmatch match-category KRAS "copy loss"
  kbmatch match-category PTEN "reduced expression"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			records, err := categoryRecords(cmd.Context(), matcher, args[0], args[1], dropHomozygous)
			if err != nil {
				return err
			}
			return printRecords(records)
		},
	}

	cmd.Flags().BoolVar(&dropHomozygous, "drop-homozygous", false, "Drop homozygous matches from the result")
	return cmd
}

// categoryRecords routes a category to the entry point that validates it:
// copy and expression categories go through their dedicated matchers.
func categoryRecords(ctx context.Context, matcher *match.Matcher, gene, category string, dropHomozygous bool) ([]kb.Record, error) {
	switch {
	case match.IsCopyCategory(category):
		return matcher.MatchCopy(ctx, gene, category, dropHomozygous)
	case match.IsExpressionCategory(category):
		return matcher.MatchExpression(ctx, gene, category)
	default:
		records, err := matcher.MatchCategory(ctx, gene, category)
		if err != nil {
			return nil, err
		}
		if dropHomozygous {
			records = match.DropHomozygous(records)
		}
		return records, nil
	}
}

// connect builds an authenticated matcher from the configuration.
func connect(ctx context.Context) (*match.Matcher, error) {
	url := viper.GetString("url")
	if url == "" {
		return nil, fmt.Errorf("no API URL configured (use --url or 'kbmatch config set url ...')")
	}
	user := viper.GetString("user")
	if user == "" {
		return nil, fmt.Errorf("no username configured (use --user or 'kbmatch config set user ...')")
	}
	password := os.Getenv(viper.GetString("pass-env"))
	if password == "" {
		return nil, fmt.Errorf("password environment variable %s is not set", viper.GetString("pass-env"))
	}

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	client := gkb.New(url)
	client.SetLogger(logger)
	if err := client.Login(ctx, user, password); err != nil {
		return nil, err
	}

	matcher := match.New(client)
	matcher.SetLogger(logger)
	return matcher, nil
}

func printRecords(records []kb.Record) error {
	if viper.GetBool("json") {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s\t%s\t%s\n", rec.RID(), rec.ClassName(), displayName(rec))
	}
	return nil
}

func displayName(rec kb.Record) string {
	switch r := rec.(type) {
	case *kb.PositionalVariant:
		return r.DisplayName
	case *kb.CategoryVariant:
		return r.DisplayName
	case *kb.OntologyTerm:
		if r.DisplayName != "" {
			return r.DisplayName
		}
		return r.Name
	case *kb.Feature:
		if r.DisplayName != "" {
			return r.DisplayName
		}
		return r.Name
	case *kb.GenericRecord:
		if r.DisplayName != "" {
			return r.DisplayName
		}
		return r.Name
	default:
		return ""
	}
}
