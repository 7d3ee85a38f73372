package common

import (
	"context"
	"fmt"

	"cvtailor/internal/errors"
	"cvtailor/internal/types"
)

// LoadInputFunc builds the operation input from the command arguments.
type LoadInputFunc[Input any] func(fp *FileProcessor, args []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc runs one pipeline operation and reports any AI token usage.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, *types.TokenUsage, error)

// RunCommand encapsulates the load, run, report and write steps shared by the
// file-based CLI commands.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	loadInput LoadInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	return runCommand(ctx, logger, NewOutputHandler(logger), cmdConfig, args, loadInput, operation, logDetails)
}

func runCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	outputHandler *OutputHandler,
	cmdConfig CommandConfig,
	args []string,
	loadInput LoadInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)

	input, err := loadInput(fileProcessor, args)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, tokenUsage, err := operation(ctx, input)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		logger.Info("AI token usage",
			"prompt_tokens", tokenUsage.PromptTokens,
			"completion_tokens", tokenUsage.CompletionTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	if err := outputHandler.HandleOutput(result, cmdConfig); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
