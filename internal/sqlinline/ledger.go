package sqlinline

const QDebitCredits = `--sql e7e5bf58-7761-48dd-bbb3-82c976a48742
update users
set credits = credits - $2::int, updated_at = now()
where id = $1::uuid
  and credits >= $2::int
returning credits;
`

const QCreditAdd = `--sql 8a4b8c46-ba52-4ac9-ae1b-abd98477397c
update users
set credits = credits + $2::int, updated_at = now()
where id = $1::uuid
returning credits;
`

const QInsertTransaction = `--sql a5313a23-1d39-4c14-84db-6ab83db83a66
insert into credit_transactions (id, user_id, job_id, type, credits, description, created_at)
values ($1::uuid, $2::uuid, $3::uuid, $4::text, $5::int, $6::text, now());
`

const QListTransactions = `--sql 21070444-0602-46ab-ad66-3b845a0f186a
select id, user_id, job_id, type, credits, description, created_at
from credit_transactions
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`
