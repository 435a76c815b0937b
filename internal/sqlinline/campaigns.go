package sqlinline

const QLockCampaign = `--sql 32f71241-7fcf-4d0a-9c09-a6019e99f2f1
select id, title, goal_amount::text, current_amount::text, backer_count, state, moderation_status, ends_at, created_at, updated_at
from campaigns
where id = $1::text
for update;
`

const QIncrementCampaignAggregate = `--sql ef2e739a-1b2c-492d-a5a2-f1dd3b46e2f3
update campaigns
set current_amount = current_amount + $2::numeric,
    backer_count = backer_count + $3::bigint,
    updated_at = now()
where id = $1::text;
`

// QCampaignSnapshot reads the campaign row and both ledger sums in one
// statement so they share a snapshot.
const QCampaignSnapshot = `--sql 8507922b-5ddb-4bcd-b39c-a833b29badf3
select c.id, c.title, c.goal_amount::text, c.current_amount::text, c.backer_count, c.state, c.moderation_status, c.ends_at, c.created_at, c.updated_at,
       coalesce(d.total, 0)::text, coalesce(d.cnt, 0),
       coalesce(e.total, 0)::text, coalesce(e.cnt, 0)
from campaigns c
left join lateral (
    select sum(amount) as total, count(*) as cnt from donations where campaign_id = c.id
) d on true
left join lateral (
    select sum(amount) as total, count(*) as cnt from expenditures where campaign_id = c.id
) e on true
where c.id = $1::text;
`
