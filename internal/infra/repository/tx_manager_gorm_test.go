package repository

import (
	"context"
	"errors"
	"testing"

	"sparkshop/internal/infra/db/dbtest"
	repo "sparkshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 途中で失敗したら全部なかったことになる
func TestTxManagerGorm_Rollback(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	tm := NewTxManagerGorm(gdb)

	boom := errors.New("boom")
	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().SaveWithRelations(ctx, sampleProduct(1)); err != nil {
			return err
		}
		if err := r.Products().SaveWithRelations(ctx, sampleProduct(2)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := NewProductGormRepository(gdb).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTxManagerGorm_Commit(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	tm := NewTxManagerGorm(gdb)

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().SaveWithRelations(ctx, sampleProduct(1)); err != nil {
			return err
		}
		_, err := r.CartLines().Insert(ctx, line(1, 1))
		return err
	})
	require.NoError(t, err)

	p, err := NewProductGormRepository(gdb).FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p.Reviews, 2)
}
