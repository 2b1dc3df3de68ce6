package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type stats struct {
	Height            uint64 `json:"height"`
	TotalTransactions uint64 `json:"totalTransactions"`
	TotalValidators   int    `json:"totalValidators"`
	Difficulty        int    `json:"difficulty"`
	MempoolSize       int    `json:"mempoolSize"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a summary of the chain.",
	Run:   statsRun,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command, args []string) {
	var s stats
	if err := get("/v1/chain/stats", &s); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Height:      ", s.Height)
	fmt.Println("Transactions:", s.TotalTransactions)
	fmt.Println("Validators:  ", s.TotalValidators)
	fmt.Println("Difficulty:  ", s.Difficulty)
	fmt.Println("Mempool:     ", s.MempoolSize)
}
