package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the document cache",
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Remove cached division maps not used within --max-age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()
		c, err := openCache(ctx, log)
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Evict(ctx, evictMaxAge)
		if err != nil {
			return err
		}
		fmt.Printf("evicted %d entries\n", n)
		return nil
	},
}

var evictMaxAge time.Duration

func init() {
	cacheEvictCmd.Flags().DurationVar(&evictMaxAge, "max-age", 30*24*time.Hour, "evict entries last accessed longer ago than this")
	cacheCmd.AddCommand(cacheEvictCmd)
}
