package modeltest

import (
	"context"
	"testing"

	"github.com/decthings/model-go/internal/interfaces"
	"github.com/stretchr/testify/require"
)

func TestMockModelTracksCalls(t *testing.T) {
	m := &MockModel{}
	_, err := m.InstantiateModel(context.Background(), interfaces.InstantiateModelOptions{})
	require.NoError(t, err)
	require.NoError(t, m.CreateModelState(context.Background(), interfaces.CreateModelStateOptions{}))

	require.Equal(t, 1, m.InstantiateModelCalls())
	require.Equal(t, 1, m.CreateModelStateCalls())
}

func TestMockInstantiatedTracksCalls(t *testing.T) {
	inst := &MockInstantiated{}
	_, err := inst.Evaluate(context.Background(), interfaces.EvaluateOptions{})
	require.NoError(t, err)
	require.NoError(t, inst.Train(context.Background(), interfaces.TrainOptions{}))
	require.NoError(t, inst.GetModelState(context.Background(), interfaces.GetModelStateOptions{}))

	require.Equal(t, 1, inst.EvaluateCalls())
	require.Equal(t, 1, inst.TrainCalls())
	require.Equal(t, 1, inst.GetModelStateCalls())
}

func TestMockInstantiatedCustomBehavior(t *testing.T) {
	inst := &MockInstantiated{
		EvaluateFunc: func(ctx context.Context, opts interfaces.EvaluateOptions) ([]interfaces.EvaluateOutput, error) {
			return []interfaces.EvaluateOutput{{Name: "y", Data: [][]byte{[]byte("z")}}}, nil
		},
	}
	out, err := inst.Evaluate(context.Background(), interfaces.EvaluateOptions{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "y", out[0].Name)
}
