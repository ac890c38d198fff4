package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage server backups",
}

var backupKind string

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup on the server",
	Run: func(cmd *cobra.Command, args []string) {
		body, _ := json.Marshal(map[string]string{"kind": backupKind})

		resp, err := http.Post(serverURL()+"/api/backup/create", "application/json", bytes.NewBuffer(body))
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		var result struct {
			Success  bool   `json:"success"`
			Filename string `json:"filename"`
			Error    string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&result)

		if !result.Success {
			fmt.Printf("Backup failed: %s\n", result.Error)
			return
		}
		fmt.Printf("Backup created: %s\n", result.Filename)
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups stored on the server",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL() + "/api/backup/list")
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		var result struct {
			Backups    []string `json:"backups"`
			LastBackup string   `json:"lastBackup"`
		}
		json.NewDecoder(resp.Body).Decode(&result)

		if len(result.Backups) == 0 {
			fmt.Println("No backups yet.")
			return
		}
		for _, name := range result.Backups {
			fmt.Println(name)
		}
		if result.LastBackup != "" {
			fmt.Printf("Last backup: %s\n", result.LastBackup)
		}
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore a backup file to the server",
	Long:  `Uploads a backup file and restores it. Restores overwrite the matching scope entirely; the server writes a safety snapshot first.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		blob, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", args[0], err)
			return
		}

		resp, err := http.Post(serverURL()+"/api/backup/restore", "application/json", bytes.NewBuffer(blob))
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var result struct {
				Error string `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&result)
			fmt.Printf("Restore failed: %s\n", result.Error)
			return
		}
		fmt.Println("Restore complete.")
	},
}

func init() {
	backupCreateCmd.Flags().StringVar(&backupKind, "kind", "server", "backup kind: client, server or integrated")
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}
