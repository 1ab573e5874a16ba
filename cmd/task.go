package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/qcgrid/qres/resource"
	"github.com/spf13/cobra"
)

var (
	taskProgram string
	taskInput   string
	taskWait    bool
	taskPoll    time.Duration
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Submit and manage tasks.",
}

var taskStartCmd = &cobra.Command{
	Use:   "start [resource]",
	Short: "Submit a task and print its id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		input, err := os.ReadFile(taskInput)
		if err != nil {
			return fmt.Errorf("reading input payload: %v", err)
		}

		ctx := context.Background()
		id, err := r.TaskStart(ctx, resource.Payload{
			Program: taskProgram,
			Input:   input,
		})
		if err != nil {
			return err
		}
		fmt.Println(id)

		if taskWait {
			s, err := resource.WaitForTerminal(ctx, r, id, taskPoll)
			if err != nil {
				return err
			}
			fmt.Println(s)
		}
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [resource] [taskID]",
	Short: "Poll the status of a task.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		s, err := r.TaskStatus(context.Background(), args[1])
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	},
}

var taskResultCmd = &cobra.Command{
	Use:   "result [resource] [taskID]",
	Short: "Print the results document of a completed task.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		ctx := context.Background()

		// Result retrieval requires an observed completion, so poll to
		// a terminal state first.
		s, err := resource.WaitForTerminal(ctx, r, args[1], taskPoll)
		if err != nil {
			return err
		}
		if s != resource.Completed {
			return fmt.Errorf("task %s did not complete: %s", args[1], s)
		}

		data, err := r.TaskResult(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var taskLogsCmd = &cobra.Command{
	Use:   "logs [resource] [taskID]",
	Short: "Print the execution logs of a task, where the backend family stages them.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		lp, ok := r.(interface {
			TaskLogs(ctx context.Context, id string) ([]byte, error)
		})
		if !ok {
			return fmt.Errorf("backend family does not stage task logs")
		}
		data, err := lp.TaskLogs(context.Background(), args[1])
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var taskStopCmd = &cobra.Command{
	Use:   "stop [resource] [taskID]",
	Short: "Cancel a task if running and dispose of its record.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadResource(args[0])
		if err != nil {
			return err
		}
		return r.TaskStop(context.Background(), args[1])
	},
}

func init() {
	taskStartCmd.Flags().StringVar(&taskProgram, "program", "sampler", "Primitive program id.")
	taskStartCmd.Flags().StringVar(&taskInput, "input", "", "Path to the input payload file.")
	taskStartCmd.Flags().BoolVar(&taskWait, "wait", false, "Wait for the task to reach a terminal state.")
	taskStartCmd.MarkFlagRequired("input")
	taskCmd.PersistentFlags().DurationVar(&taskPoll, "poll", time.Second*2, "Status polling interval.")

	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskResultCmd)
	taskCmd.AddCommand(taskLogsCmd)
	taskCmd.AddCommand(taskStopCmd)
}
