package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sheetmap/storage"
)

var (
	deleteDBPath  string
	deleteBinding string
	deleteRun     string
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete stored rows or the complete SQLite database file",
	Long: `Destructive database cleanup command.

With --binding only the rows of that binding are deleted.
With --run only the rows stored by that import run are deleted.
Without either, the complete SQLite database file is deleted.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the rows of one binding
  sheetmap delete --binding trades --db ./sheetmap.db

  # Undo one import run
  sheetmap delete --run 0f8fad5b-d9cb-469f-a165-70867728950e --db ./sheetmap.db

  # Delete the complete SQLite file (requires interactive confirmation)
  sheetmap delete --db ./sheetmap.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteBinding != "" && deleteRun != "" {
			return fmt.Errorf("--binding and --run cannot be combined")
		}

		subject := fmt.Sprintf("database file %q", deleteDBPath)
		switch {
		case deleteBinding != "":
			subject = fmt.Sprintf("all rows of binding %q in %q", deleteBinding, deleteDBPath)
		case deleteRun != "":
			subject = fmt.Sprintf("all rows of run %q in %q", deleteRun, deleteDBPath)
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, subject)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if deleteBinding != "" || deleteRun != "" {
			deleted, err := deleteStoredRows(deleteDBPath, deleteBinding, deleteRun)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted rows: %d\n", deleted)
			return nil
		}

		if err := removeDatabaseFile(deleteDBPath); err != nil {
			return err
		}
		fmt.Printf("Deleted database file: %s\n", deleteDBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "./sheetmap.db", "Path to local SQLite database")
	deleteCmd.Flags().StringVarP(&deleteBinding, "binding", "b", "", "Only delete the rows of this binding")
	deleteCmd.Flags().StringVar(&deleteRun, "run", "", "Only delete the rows of this import run")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, subject string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", subject); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

// deleteStoredRows deletes by binding, or by run when binding is empty.
func deleteStoredRows(dbPath, binding, runID string) (int64, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("database file not found: %s", dbPath)
		}
		return 0, fmt.Errorf("stat database file: %w", err)
	}

	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if binding != "" {
		return store.DeleteRecords(binding)
	}
	return store.DeleteRun(runID)
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}
