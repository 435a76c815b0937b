package sqlinline

const QInsertOutbox = `--sql 3d2e53f5-20c2-4a5d-b69b-ed1064056303
insert into outbox(event_id, event_type, event_key, payload, created_at)
values ($1::uuid, $2::text, $3::text, $4::jsonb, $5::timestamptz);
`

const QClaimOutbox = `--sql ece4ec8a-54fb-4259-a1df-ef1254082dcd
select seq, event_id, event_type, event_key, payload, created_at
from outbox
where sent_at is null
order by seq
limit $1::int
for update skip locked;
`

const QMarkOutboxSent = `--sql 414198ab-00cc-4e2b-ad17-6bb50c8daecb
update outbox set sent_at = now() where seq = $1::bigint;
`
