package sqlinline

const QInsertJob = `--sql a3b25d43-0ffa-48ce-a636-7aad1ddbfa8b
insert into generation_jobs (
    id,
    user_id,
    source_key,
    original_url,
    style,
    prompt,
    status,
    created_at,
    updated_at
)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, 'pending', now(), now())
returning id, created_at;
`

const QSelectJobByID = `--sql c4ccaaed-4fcd-4141-8a14-836cd3e0da0e
select
    id,
    user_id,
    source_key,
    original_url,
    style,
    coalesce(prompt, ''),
    status,
    coalesce(result_key, ''),
    coalesce(result_url, ''),
    coalesce(error_message, ''),
    coalesce(processing_time_ms, 0),
    created_at,
    updated_at
from generation_jobs
where id = $1::uuid
limit 1;
`

const QClaimPendingJob = `--sql a07a740c-49ce-46cc-8505-2cb79c13f599
update generation_jobs
set status = 'processing', updated_at = now()
where id = (
    select id
    from generation_jobs
    where status = 'pending'
    order by created_at
    for update skip locked
    limit 1
)
returning id, user_id, source_key, original_url, style, coalesce(prompt, '');
`

const QCompleteJob = `--sql 881dd426-52b2-4e7a-987c-38c60c3b2b62
update generation_jobs
set status = 'completed',
    result_key = $2::text,
    result_url = $3::text,
    processing_time_ms = $4::bigint,
    updated_at = now()
where id = $1::uuid
  and status = 'processing'
returning id;
`

const QFailJob = `--sql 0c700b06-6896-4f39-845b-408b8a9a015b
update generation_jobs
set status = 'failed',
    error_message = $2::text,
    processing_time_ms = $3::bigint,
    updated_at = now()
where id = $1::uuid
  and status = 'processing'
returning id;
`
