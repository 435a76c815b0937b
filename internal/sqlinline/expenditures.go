package sqlinline

const QInsertExpenditure = `--sql 169621f6-bafc-4c59-ba44-1a0905dd7f6c
insert into expenditures(id, campaign_id, creator_id, amount, title, used_at, created_at)
values ($1::uuid, $2::text, $3::text, $4::numeric, $5::text, $6::timestamptz, now())
returning created_at;
`
