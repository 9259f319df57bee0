package commands

import (
	"fmt"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var (
	detailText     *bool
	detailMarkdown *bool
)

func init() {
	detailText = detailCmd.Flags().Bool("text", false, "Extract page and result document text.")
	detailMarkdown = detailCmd.Flags().Bool("markdown", false, "Print the main content of the page as Markdown instead of parsing it.")
	rootCmd.AddCommand(detailCmd)
}

// contentSelectors locate the main content of a detail page, most specific first.
var contentSelectors = []string{"div.board_view", "#contents", "#content", "body"}

func pageMarkdown(doc *goquery.Document) (string, error) {
	content := doc.Selection
	for _, selector := range contentSelectors {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			content = found
			break
		}
	}
	html, err := goquery.OuterHtml(content)
	if err != nil {
		return "", err
	}
	return htmltomarkdown.ConvertString(html)
}

var detailCmd = &cobra.Command{
	Use:   "detail <url> [--text] [--markdown]",
	Short: "Fetches a single detail page and prints what was recovered from it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, scraper, err := loadScraper()
		if err != nil {
			return err
		}

		if *detailMarkdown {
			doc, err := scraper.DetailDocument(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch detail: %w", err)
			}
			markdown, err := pageMarkdown(doc)
			if err != nil {
				return fmt.Errorf("convert to markdown: %w", err)
			}
			fmt.Println(markdown)
			return nil
		}

		record, err := scraper.Detail(cmd.Context(), args[0], *detailText)
		if err != nil {
			return fmt.Errorf("fetch detail: %w", err)
		}
		return writeJSON(os.Stdout, record)
	},
}
