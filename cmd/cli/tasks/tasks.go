package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crumley/taskdeck/cmd/cli/config"
	"github.com/crumley/taskdeck/cmd/cli/output"
)

type task struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	IsCompleted bool    `json:"is_completed"`
	Image       *string `json:"image"`
}

// InitTasks registers task commands on the root command.
func InitTasks(rootCmd *cobra.Command) {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}

	tasksCmd.AddCommand(
		listTasksCmd(),
		addTaskCmd(),
		toggleTaskCmd(),
		deleteTaskCmd(),
	)

	rootCmd.AddCommand(tasksCmd)
}

// ==========================
// LIST
// ==========================
func listTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("GET", config.APIURL()+"/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp, http.StatusOK); err != nil {
				return err
			}

			var tasks []task
			if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(tasks))
			for _, t := range tasks {
				done := " "
				if t.IsCompleted {
					done = "x"
				}
				image := ""
				if t.Image != nil {
					image = *t.Image
				}
				rows = append(rows, []interface{}{t.ID, done, t.Title, image})
			}
			output.RenderTable([]string{"ID", "DONE", "TITLE", "IMAGE"}, rows)
			return nil
		},
	}
}

// ==========================
// ADD
// ==========================
func addTaskCmd() *cobra.Command {
	var title string
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task, optionally attaching an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("title is required")
			}

			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			if err := mw.WriteField("title", title); err != nil {
				return err
			}
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return err
				}
				defer f.Close()
				part, err := mw.CreateFormFile("image", filepath.Base(imagePath))
				if err != nil {
					return err
				}
				if _, err := io.Copy(part, f); err != nil {
					return err
				}
			}
			mw.Close()

			req, _ := http.NewRequest("POST", config.APIURL()+"/tasks", &buf)
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp, http.StatusCreated); err != nil {
				return err
			}

			var t task
			if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
				return err
			}
			fmt.Printf("Created task %d: %s\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to an image to attach")

	return cmd
}

// ==========================
// TOGGLE
// ==========================
func toggleTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("PUT", config.APIURL()+"/tasks/"+args[0], nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp, http.StatusOK); err != nil {
				return err
			}

			var t task
			if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
				return err
			}
			state := "open"
			if t.IsCompleted {
				state = "done"
			}
			fmt.Printf("Task %d is now %s.\n", t.ID, state)
			return nil
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("DELETE", config.APIURL()+"/tasks/"+args[0], nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp, http.StatusOK); err != nil {
				return err
			}

			fmt.Printf("Task %s deleted.\n", args[0])
			return nil
		},
	}
}

func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
}
