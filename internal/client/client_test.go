// Copyright 2026 the job-platform authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "job-platform/pkg/errors"
)

func TestParamAction_RoundTrip(t *testing.T) {
	pa := &ParamAction{
		JobID:        "job-001",
		JobType:      JobTypeSync,
		EngineType:   EngineFlink,
		MaxRetryNum:  3,
		IsFailRetry:  true,
		PluginInfo:   `{"queue":"default"}`,
		SQLText:      "insert into t select * from s",
		ExternalPath: "/ckpt/job-001/chk-42",
		ConfProperties: map[string]string{
			"openCheckpoint": "true",
			"sql.env":        "prod",
		},
	}

	encoded, err := pa.Encode()
	require.NoError(t, err)

	decoded, err := ParseParamAction(encoded)
	require.NoError(t, err)
	assert.Equal(t, pa, decoded)
}

func TestParamAction_RoundTripThroughClient(t *testing.T) {
	pa := &ParamAction{
		JobID:          "job-002",
		JobType:        JobTypeSQL,
		EngineType:     EngineSpark,
		MaxRetryNum:    1,
		IsFailRetry:    false,
		SQLText:        "select 1",
		ConfProperties: map[string]string{"k": "v"},
	}
	c := NewJobClient(pa)
	assert.Equal(t, pa, c.ParamAction())

	// 句柄上的修改不回写原 ParamAction
	c.ConfProperties["k"] = "v2"
	assert.Equal(t, "v", pa.ConfProperties["k"])
}

func TestParamAction_ParseError(t *testing.T) {
	_, err := ParseParamAction("{not json")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSnapshotCorrupt))
}

func TestJobClient_SetPluginTag(t *testing.T) {
	c := NewJobClient(&ParamAction{JobID: "job-003", PluginInfo: `{"queue":"root.default"}`})
	require.NoError(t, c.SetPluginTag("retry", true))

	v, ok := c.PluginTag("retry")
	require.True(t, ok)
	assert.Equal(t, true, v)

	// 既有键保留
	v, ok = c.PluginTag("queue")
	require.True(t, ok)
	assert.Equal(t, "root.default", v)
}

func TestJobClient_SetPluginTag_EmptyPluginInfo(t *testing.T) {
	c := NewJobClient(&ParamAction{JobID: "job-004"})
	require.NoError(t, c.SetPluginTag("retry", true))

	v, ok := c.PluginTag("retry")
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestJobClient_SetPluginTag_CorruptPluginInfo(t *testing.T) {
	c := NewJobClient(&ParamAction{JobID: "job-005", PluginInfo: "{broken"})
	assert.Error(t, c.SetPluginTag("retry", true))
	// 失败时不破坏原文
	assert.Equal(t, "{broken", c.PluginInfo)
}

func TestJobClient_OpenCheckpoint(t *testing.T) {
	cases := []struct {
		name string
		conf map[string]string
		want bool
	}{
		{"true", map[string]string{"openCheckpoint": "true"}, true},
		{"true大写", map[string]string{"openCheckpoint": "TRUE"}, true},
		{"带空白", map[string]string{"openCheckpoint": " true "}, true},
		{"false", map[string]string{"openCheckpoint": "false"}, false},
		{"非法值", map[string]string{"openCheckpoint": "yes"}, false},
		{"缺失", map[string]string{}, false},
		{"无配置", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewJobClient(&ParamAction{JobID: "j", ConfProperties: tc.conf})
			assert.Equal(t, tc.want, c.OpenCheckpoint())
		})
	}
}

func TestEngineTypeEqual(t *testing.T) {
	assert.True(t, EngineTypeEqual("Kylin", EngineKylin))
	assert.True(t, EngineTypeEqual("KYLIN", EngineKylin))
	assert.False(t, EngineTypeEqual(EngineFlink, EngineKylin))
}
