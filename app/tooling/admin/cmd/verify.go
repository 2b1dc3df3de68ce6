package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

type verifyResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay the chain and report every integrity issue.",
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) {
	var result verifyResult
	if err := get("/v1/chain/verify", &result); err != nil {
		log.Fatal(err)
	}

	if result.Valid {
		fmt.Println("chain verified: no issues")
		return
	}

	fmt.Printf("chain INVALID: %d issue(s)\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Println("  -", issue)
	}
	os.Exit(1)
}
