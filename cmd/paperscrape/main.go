// Command paperscrape turns a conference open-access listing page into paper
// records (title, authors, PDF, supplementary and arXiv links) and writes them
// as CSV, JSON Lines, JSON, PDF and optionally into a SQLite database.
//
// Usage:
//
//	paperscrape                                  # scrape the CVPR 2024 listing
//	paperscrape scrape --url <listing> --out ./data --format csv,jsonl
//	paperscrape cache clear
//	paperscrape version
package main

func main() {
	Execute()
}
