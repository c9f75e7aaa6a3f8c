package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr      error
	steps      []int
	forced     []int
	version    uint
	dirty      bool
	versionErr error
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func TestRunUp(t *testing.T) {
	msg, err := run(&fakeMigrator{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "migrations complete", msg)

	_, err = run(&fakeMigrator{upErr: migrate.ErrNoChange}, []string{"up"})
	assert.NoError(t, err)

	_, err = run(&fakeMigrator{upErr: errors.New("syntax error")}, []string{"up"})
	assert.ErrorContains(t, err, "syntax error")
}

func TestRunDown(t *testing.T) {
	m := &fakeMigrator{}
	_, err := run(m, []string{"down"})
	require.NoError(t, err)
	msg, err := run(m, []string{"down", "2"})
	require.NoError(t, err)
	assert.Equal(t, "rolled back 2 migration(s)", msg)
	assert.Equal(t, []int{-1, -2}, m.steps)

	_, err = run(m, []string{"down", "0"})
	assert.Error(t, err)
	assert.Len(t, m.steps, 2)
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	msg, err := run(m, []string{"force", "3"})
	require.NoError(t, err)
	assert.Equal(t, "forced version to 3", msg)
	assert.Equal(t, []int{3}, m.forced)

	_, err = run(m, []string{"force"})
	assert.Error(t, err)
	_, err = run(m, []string{"force", "latest"})
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	msg, err := run(&fakeMigrator{version: 3}, []string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "version 3 (dirty=false)", msg)

	msg, err = run(&fakeMigrator{versionErr: migrate.ErrNilVersion}, []string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "no migrations applied", msg)
}

func TestRunUnknownCommand(t *testing.T) {
	_, err := run(&fakeMigrator{}, []string{"drop"})
	assert.EqualError(t, err, usage)
}
