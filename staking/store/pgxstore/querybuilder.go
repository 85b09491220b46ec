package pgxstore

import (
	"fmt"

	"github.com/screwyprof/glanger/staking"
)

// SQL queries
const (
	baseStakersQuery = "SELECT address, unclaimed_rewards::text AS unclaimed_rewards, last_update FROM stakers s"
	activeCondition  = "EXISTS (SELECT 1 FROM staked_tokens t WHERE t.staker = s.address)"
)

// StakersQueryBuilder provides a small DSL for building staker listing queries
type StakersQueryBuilder struct {
	sql   string
	args  []any
	where bool
}

// NewStakersQuery creates a new stakers query builder
func NewStakersQuery() *StakersQueryBuilder {
	return &StakersQueryBuilder{
		sql: baseStakersQuery,
	}
}

// Active restricts the query to stakers holding at least one staked token
func (q *StakersQueryBuilder) Active() *StakersQueryBuilder {
	q.addWhere(activeCondition)
	q.sql += " ORDER BY address"
	return q
}

// ForCriteria selects an ordered page of active stakers in one fluent call
func (q *StakersQueryBuilder) ForCriteria(criteria staking.StakersCriteria) *StakersQueryBuilder {
	return q.
		Active().
		paginateWithDetection(criteria)
}

// paginateWithDetection adds pagination with "has more" detection using LIMIT n+1
func (q *StakersQueryBuilder) paginateWithDetection(criteria staking.StakersCriteria) *StakersQueryBuilder {
	q.addParameter("LIMIT $%d", criteria.ItemsPerPage()+1)

	if offset := criteria.ItemsToSkip(); offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}

	return q
}

// Build returns the final SQL query and arguments
func (q *StakersQueryBuilder) Build() (string, []any) {
	return q.sql, q.args
}

func (q *StakersQueryBuilder) addWhere(clause string) {
	if q.where {
		q.sql += " AND " + clause
	} else {
		q.sql += " WHERE " + clause
	}
	q.where = true
}

func (q *StakersQueryBuilder) addParameter(sqlClause string, value any) {
	q.args = append(q.args, value)
	q.sql += " " + fmt.Sprintf(sqlClause, len(q.args))
}
