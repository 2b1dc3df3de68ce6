package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	attacker   string
	attackType string
)

var attackCmd = &cobra.Command{
	Use:   "attack",
	Short: "Report an observed attack so the node hardens itself.",
	Run:   attackRun,
}

func init() {
	rootCmd.AddCommand(attackCmd)
	attackCmd.Flags().StringVarP(&attacker, "attacker", "a", "", "Identity of the attacker.")
	attackCmd.Flags().StringVarP(&attackType, "type", "t", "unknown", "Kind of attack observed.")
	attackCmd.MarkFlagRequired("attacker")
}

func attackRun(cmd *cobra.Command, args []string) {
	payload, err := json.Marshal(struct {
		Attacker   string `json:"attacker"`
		AttackType string `json:"attackType"`
	}{
		Attacker:   attacker,
		AttackType: attackType,
	})
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(url+"/v1/infinity/attack", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("node returned status %s", resp.Status)
	}

	var st struct {
		InfinityFactor    float64 `json:"infinityFactor"`
		CurrentDifficulty float64 `json:"currentDifficulty"`
		AttacksDetected   uint64  `json:"attacksDetected"`
		HashIterations    int     `json:"hashIterations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Attacks:       ", st.AttacksDetected)
	fmt.Println("InfinityFactor:", st.InfinityFactor)
	fmt.Println("Difficulty:    ", st.CurrentDifficulty)
	fmt.Println("Iterations:    ", st.HashIterations)
}
