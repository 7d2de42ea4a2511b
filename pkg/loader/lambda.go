// pkg/loader/lambda.go
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"
)

// LambdaAPI is the subset of the Lambda client the trigger uses
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaTrigger invokes the loader function synchronously
type LambdaTrigger struct {
	client   LambdaAPI
	function string
	logger   *zap.Logger
}

// NewLambdaTrigger creates a trigger backed by an SDK client
func NewLambdaTrigger(awsCfg aws.Config, function string, logger *zap.Logger) *LambdaTrigger {
	return NewLambdaTriggerWithClient(lambda.NewFromConfig(awsCfg), function, logger)
}

// NewLambdaTriggerWithClient creates a trigger using the given client
func NewLambdaTriggerWithClient(client LambdaAPI, function string, logger *zap.Logger) *LambdaTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LambdaTrigger{
		client:   client,
		function: function,
		logger:   logger.Named("lambda-trigger"),
	}
}

// Name implements Trigger
func (t *LambdaTrigger) Name() string {
	return t.function
}

// Trigger invokes the function with an empty JSON payload and waits for it
func (t *LambdaTrigger) Trigger(ctx context.Context) (*Response, error) {
	t.logger.Info("Invoking loader function", zap.String("function", t.function))

	out, err := t.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(t.function),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        []byte("{}"),
	})
	if err != nil {
		if isRejection(err) {
			return nil, &RejectedError{Function: t.function, Err: err}
		}
		return nil, fmt.Errorf("failed to invoke %s: %w", t.function, err)
	}

	resp := &Response{
		Target:     t.function,
		StatusCode: int(out.StatusCode),
		Payload:    out.Payload,
	}

	if out.FunctionError != nil {
		t.logger.Error("Loader function reported an error",
			zap.String("function", t.function),
			zap.String("kind", aws.ToString(out.FunctionError)),
			zap.ByteString("payload", out.Payload))
		return resp, &FunctionError{
			Function: t.function,
			Kind:     aws.ToString(out.FunctionError),
			Payload:  out.Payload,
		}
	}

	t.logger.Info("Loader function completed",
		zap.String("function", t.function),
		zap.Int("statusCode", resp.StatusCode),
		zap.String("version", aws.ToString(out.ExecutedVersion)))
	return resp, nil
}

// isRejection reports errors for which a repeated invocation fails the same way
func isRejection(err error) bool {
	var (
		notFound *types.ResourceNotFoundException
		invalid  *types.InvalidParameterValueException
		request  *types.InvalidRequestContentException
	)
	return errors.As(err, &notFound) || errors.As(err, &invalid) || errors.As(err, &request)
}
